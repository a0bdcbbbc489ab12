package join

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions/internal/paths"
	"github.com/mensylisir/nodestate/pkg/connector"
)

var requiredModules = []string{"overlay", "br_netfilter"}

// LoadKernelModules loads the modules container runtimes and kube-proxy
// depend on and persists them in a modules-load.d drop-in.
type LoadKernelModules struct {
	action.Base
}

// NewLoadKernelModules builds the action.
func NewLoadKernelModules() *LoadKernelModules {
	a := &LoadKernelModules{}
	a.ActionMeta = action.Meta{
		Name:        "load-kernel-modules",
		Description: "Load and persist overlay and br_netfilter kernel modules",
		Targets:     []action.Target{action.TargetJoin},
		Category:    action.CategoryKernel,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when every module is loaded and the drop-in exists.
func (a *LoadKernelModules) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	for _, mod := range requiredModules {
		loaded, err := ctx.Host.Kernel.ModuleLoaded(ctx.GoContext, mod)
		if err != nil {
			return action.Unknown, err
		}
		if !loaded {
			return action.Unsatisfied, nil
		}
	}
	exists, err := ctx.Runner.Exists(ctx.GoContext, paths.ModulesLoadDropIn)
	if err != nil {
		return action.Unknown, err
	}
	if !exists {
		return action.Unsatisfied, nil
	}
	return action.Satisfied, nil
}

// Apply modprobes each module and writes the drop-in. modprobe of a loaded
// module is a no-op.
func (a *LoadKernelModules) Apply(ctx *action.ExecutionContext) error {
	for _, mod := range requiredModules {
		if err := ctx.Host.Kernel.LoadModule(ctx.GoContext, mod); err != nil {
			return action.Classify("modprobe "+mod, err)
		}
	}
	content := strings.Join(requiredModules, "\n") + "\n"
	if err := ctx.Runner.WriteFile(ctx.GoContext, paths.ModulesLoadDropIn, []byte(content), "0644", &connector.ExecOptions{Sudo: true}); err != nil {
		return action.Classify("write "+paths.ModulesLoadDropIn, err)
	}
	return nil
}

var _ action.Action = (*LoadKernelModules)(nil)
