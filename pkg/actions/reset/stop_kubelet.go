package reset

import (
	"github.com/mensylisir/nodestate/pkg/action"
)

// StopKubelet stops and disables the kubelet unit so it cannot recreate
// state while the rest of the teardown runs.
type StopKubelet struct {
	action.Base
}

// NewStopKubelet builds the action.
func NewStopKubelet() *StopKubelet {
	a := &StopKubelet{}
	a.ActionMeta = action.Meta{
		Name:        "stop-kubelet",
		Description: "Stop and disable the kubelet service",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"kubeadm-reset"},
		Category:    action.CategoryService,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when kubelet is neither active nor enabled.
func (a *StopKubelet) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	active, err := ctx.Host.Services.IsActive(ctx.GoContext, "kubelet.service")
	if err != nil {
		return action.Unknown, err
	}
	enabled, err := ctx.Host.Services.IsEnabled(ctx.GoContext, "kubelet.service")
	if err != nil {
		return action.Unknown, err
	}
	if !active && !enabled {
		return action.Satisfied, nil
	}
	return action.Unsatisfied, nil
}

// Apply stops then disables the unit; both calls tolerate a unit that is
// already in the target state.
func (a *StopKubelet) Apply(ctx *action.ExecutionContext) error {
	if err := ctx.Host.Services.Stop(ctx.GoContext, "kubelet.service"); err != nil {
		return action.Classify("stop kubelet", err)
	}
	if err := ctx.Host.Services.Disable(ctx.GoContext, "kubelet.service"); err != nil {
		return action.Classify("disable kubelet", err)
	}
	return nil
}

var _ action.Action = (*StopKubelet)(nil)
