package reset

import (
	"github.com/mensylisir/nodestate/pkg/action"
)

// ReloadFirewall reloads firewalld so its runtime state no longer carries
// rules referencing removed links or flushed chains. Hosts without
// firewalld skip this.
type ReloadFirewall struct {
	action.Base
}

// NewReloadFirewall builds the action.
func NewReloadFirewall() *ReloadFirewall {
	a := &ReloadFirewall{}
	a.ActionMeta = action.Meta{
		Name:        "reload-firewall",
		Description: "Reload firewalld runtime configuration",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"flush-iptables"},
		Category:    action.CategoryFirewall,
		Reversible:  false,
	}
	return a
}

// Check is Satisfied when firewalld is not running; a running firewalld is
// always reloaded (the reload is idempotent and there is no cheap way to
// tell whether runtime state is stale).
func (a *ReloadFirewall) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "firewall-cmd"); err != nil {
		return action.Satisfied, nil
	}
	active, err := ctx.Host.Firewall.FirewalldActive(ctx.GoContext)
	if err != nil {
		return action.Unknown, err
	}
	if !active {
		return action.Satisfied, nil
	}
	return action.Unsatisfied, nil
}

// Apply reloads firewalld.
func (a *ReloadFirewall) Apply(ctx *action.ExecutionContext) error {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "firewall-cmd"); err != nil {
		return action.NewApplyError(action.ExternalToolMissing, "firewall-cmd not installed", err)
	}
	if err := ctx.Host.Firewall.Reload(ctx.GoContext); err != nil {
		return action.Classify("firewall-cmd --reload", err)
	}
	return nil
}

var _ action.Action = (*ReloadFirewall)(nil)
