package join

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
)

// OpenFirewallPorts opens the kubelet and NodePort ranges in firewalld.
// Hosts without a running firewalld need nothing opened.
type OpenFirewallPorts struct {
	action.Base
	Ports []string
}

// NewOpenFirewallPorts builds the action with the configured port list.
func NewOpenFirewallPorts(ports []string) *OpenFirewallPorts {
	a := &OpenFirewallPorts{Ports: ports}
	a.ActionMeta = action.Meta{
		Name:        "open-firewall-ports",
		Description: "Open Kubernetes ports in firewalld (" + strings.Join(ports, ", ") + ")",
		Targets:     []action.Target{action.TargetJoin},
		Category:    action.CategoryFirewall,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when firewalld is absent/stopped or every port rule
// already exists.
func (a *OpenFirewallPorts) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
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
	for _, port := range a.Ports {
		open, err := ctx.Host.Firewall.PortOpen(ctx.GoContext, port)
		if err != nil {
			return action.Unknown, err
		}
		if !open {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply adds the permanent rules and reloads. Adding an existing rule is
// tolerated by firewalld.
func (a *OpenFirewallPorts) Apply(ctx *action.ExecutionContext) error {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "firewall-cmd"); err != nil {
		return action.NewApplyError(action.ExternalToolMissing, "firewall-cmd not installed", err)
	}
	for _, port := range a.Ports {
		if err := ctx.Host.Firewall.OpenPort(ctx.GoContext, port); err != nil {
			return action.Classify("open port "+port, err)
		}
	}
	if err := ctx.Host.Firewall.Reload(ctx.GoContext); err != nil {
		return action.Classify("firewall-cmd --reload", err)
	}
	return nil
}

var _ action.Action = (*OpenFirewallPorts)(nil)
