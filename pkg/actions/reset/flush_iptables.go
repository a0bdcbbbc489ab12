package reset

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/connector"
)

var iptablesTables = []string{"filter", "nat", "mangle"}

// FlushIptables removes the rules kube-proxy and CNI plugins installed.
// Runs after link removal so no rule references a device that still exists.
type FlushIptables struct {
	action.Base
}

// NewFlushIptables builds the action.
func NewFlushIptables() *FlushIptables {
	a := &FlushIptables{}
	a.ActionMeta = action.Meta{
		Name:        "flush-iptables",
		Description: "Flush iptables rules and delete Kubernetes chains",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"remove-cni-interfaces"},
		Category:    action.CategoryFirewall,
		Reversible:  false,
	}
	return a
}

// Check looks for KUBE-* or CNI-* chains; their absence is the satisfied
// state. A full rules diff is not attempted: flushing an already-clean
// table is harmless and cheap.
func (a *FlushIptables) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	stdout, _, err := ctx.Runner.Run(ctx.GoContext, "iptables-save", &connector.ExecOptions{Sudo: true})
	if err != nil {
		return action.Unknown, err
	}
	for _, line := range strings.Split(string(stdout), "\n") {
		if strings.HasPrefix(line, ":KUBE-") || strings.HasPrefix(line, ":CNI-") {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply flushes and deletes user chains in filter, nat, and mangle.
func (a *FlushIptables) Apply(ctx *action.ExecutionContext) error {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "iptables"); err != nil {
		return action.NewApplyError(action.ExternalToolMissing, "iptables not installed", err)
	}
	if err := ctx.Host.Firewall.FlushIptables(ctx.GoContext, iptablesTables); err != nil {
		return action.Classify("flush iptables", err)
	}
	return nil
}

var _ action.Action = (*FlushIptables)(nil)
