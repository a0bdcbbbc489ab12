package reset

import (
	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions/internal/paths"
	"github.com/mensylisir/nodestate/pkg/connector"
)

// RemoveKernelConfig deletes the sysctl and modules-load drop-ins the join
// flow installed and re-applies the remaining sysctl configuration.
// Loaded modules are left alone: unloading br_netfilter on a live host is
// gratuitous and fails with ResourceBusy whenever any bridge exists.
type RemoveKernelConfig struct {
	action.Base
}

// NewRemoveKernelConfig builds the action.
func NewRemoveKernelConfig() *RemoveKernelConfig {
	a := &RemoveKernelConfig{}
	a.ActionMeta = action.Meta{
		Name:        "remove-kernel-config",
		Description: "Remove Kubernetes sysctl and modules-load drop-ins",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"remove-kube-state"},
		Category:    action.CategoryKernel,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when neither drop-in exists.
func (a *RemoveKernelConfig) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	for _, p := range []string{paths.SysctlDropIn, paths.ModulesLoadDropIn} {
		exists, err := ctx.Runner.Exists(ctx.GoContext, p)
		if err != nil {
			return action.Unknown, err
		}
		if exists {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply removes the drop-ins and reloads sysctl state.
func (a *RemoveKernelConfig) Apply(ctx *action.ExecutionContext) error {
	sudo := &connector.ExecOptions{Sudo: true}
	for _, p := range []string{paths.SysctlDropIn, paths.ModulesLoadDropIn} {
		if err := ctx.Runner.Remove(ctx.GoContext, p, sudo); err != nil {
			return action.Classify("remove "+p, err)
		}
	}
	if err := ctx.Host.Kernel.ReloadSysctl(ctx.GoContext); err != nil {
		return action.Classify("sysctl --system", err)
	}
	return nil
}

var _ action.Action = (*RemoveKernelConfig)(nil)
