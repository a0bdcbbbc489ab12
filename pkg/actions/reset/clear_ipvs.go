package reset

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/connector"
)

// ClearIPVS flushes kube-proxy's IPVS virtual server table. Hosts running
// kube-proxy in iptables mode have no ipvsadm; that is tolerated.
type ClearIPVS struct {
	action.Base
}

// NewClearIPVS builds the action.
func NewClearIPVS() *ClearIPVS {
	a := &ClearIPVS{}
	a.ActionMeta = action.Meta{
		Name:        "clear-ipvs",
		Description: "Clear the IPVS virtual server table",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"stop-kubelet"},
		Category:    action.CategoryNetwork,
		Reversible:  false,
	}
	return a
}

// Check is Satisfied when ipvsadm is absent or its table is empty.
func (a *ClearIPVS) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "ipvsadm"); err != nil {
		return action.Satisfied, nil
	}
	stdout, _, err := ctx.Runner.Run(ctx.GoContext, "ipvsadm -L -n", &connector.ExecOptions{Sudo: true})
	if err != nil {
		return action.Unknown, err
	}
	// Header-only output has no "TCP"/"UDP" service lines.
	for _, line := range strings.Split(string(stdout), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "TCP") || strings.HasPrefix(trimmed, "UDP") {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply clears the table.
func (a *ClearIPVS) Apply(ctx *action.ExecutionContext) error {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "ipvsadm"); err != nil {
		return action.NewApplyError(action.ExternalToolMissing, "ipvsadm not installed", err)
	}
	_, _, err := ctx.Runner.Run(ctx.GoContext, "ipvsadm --clear", &connector.ExecOptions{Sudo: true})
	if err != nil {
		return action.Classify("ipvsadm --clear", err)
	}
	return nil
}

var _ action.Action = (*ClearIPVS)(nil)
