package join

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions/internal/paths"
	"github.com/mensylisir/nodestate/pkg/connector"
)

// requiredSysctls are the settings kubeadm's preflight verifies. br_netfilter
// must be loaded before the bridge keys exist, hence the dependency on
// load-kernel-modules.
var requiredSysctls = map[string]string{
	"net.bridge.bridge-nf-call-iptables":  "1",
	"net.bridge.bridge-nf-call-ip6tables": "1",
	"net.ipv4.ip_forward":                 "1",
}

// ApplySysctl writes the Kubernetes sysctl drop-in and applies it.
type ApplySysctl struct {
	action.Base
}

// NewApplySysctl builds the action.
func NewApplySysctl() *ApplySysctl {
	a := &ApplySysctl{}
	a.ActionMeta = action.Meta{
		Name:        "apply-sysctl",
		Description: "Set bridge and forwarding sysctls required by Kubernetes",
		Targets:     []action.Target{action.TargetJoin},
		Requires:    []string{"load-kernel-modules"},
		Category:    action.CategoryKernel,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when every key already holds its required value.
func (a *ApplySysctl) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	for key, want := range requiredSysctls {
		got, err := ctx.Host.Kernel.SysctlValue(ctx.GoContext, key)
		if err != nil {
			return action.Unknown, err
		}
		if got != want {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply writes the drop-in and reloads sysctl state.
func (a *ApplySysctl) Apply(ctx *action.ExecutionContext) error {
	keys := make([]string, 0, len(requiredSysctls))
	for k := range requiredSysctls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, requiredSysctls[k])
	}
	if err := ctx.Runner.WriteFile(ctx.GoContext, paths.SysctlDropIn, []byte(b.String()), "0644", &connector.ExecOptions{Sudo: true}); err != nil {
		return action.Classify("write "+paths.SysctlDropIn, err)
	}
	if err := ctx.Host.Kernel.ReloadSysctl(ctx.GoContext); err != nil {
		return action.Classify("sysctl --system", err)
	}
	return nil
}

var _ action.Action = (*ApplySysctl)(nil)
