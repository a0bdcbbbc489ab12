package join

import (
	"github.com/mensylisir/nodestate/pkg/action"
)

// EnableContainerRuntime enables and starts the container runtime unit,
// containerd unless configured otherwise.
type EnableContainerRuntime struct {
	action.Base
	Unit string
}

// NewEnableContainerRuntime builds the action.
func NewEnableContainerRuntime(unit string) *EnableContainerRuntime {
	a := &EnableContainerRuntime{Unit: unit}
	a.ActionMeta = action.Meta{
		Name:        "enable-container-runtime",
		Description: "Enable and start the container runtime (" + unit + ")",
		Targets:     []action.Target{action.TargetJoin},
		Category:    action.CategoryService,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when the unit is active and enabled.
func (a *EnableContainerRuntime) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	active, err := ctx.Host.Services.IsActive(ctx.GoContext, a.Unit)
	if err != nil {
		return action.Unknown, err
	}
	enabled, err := ctx.Host.Services.IsEnabled(ctx.GoContext, a.Unit)
	if err != nil {
		return action.Unknown, err
	}
	if active && enabled {
		return action.Satisfied, nil
	}
	return action.Unsatisfied, nil
}

// Apply enables --now.
func (a *EnableContainerRuntime) Apply(ctx *action.ExecutionContext) error {
	if err := ctx.Host.Services.EnableNow(ctx.GoContext, a.Unit); err != nil {
		return action.Classify("enable "+a.Unit, err)
	}
	return nil
}

var _ action.Action = (*EnableContainerRuntime)(nil)

// EnableKubelet enables the kubelet unit without starting it: kubeadm join
// starts the kubelet once it has written the bootstrap configuration.
type EnableKubelet struct {
	action.Base
}

// NewEnableKubelet builds the action.
func NewEnableKubelet() *EnableKubelet {
	a := &EnableKubelet{}
	a.ActionMeta = action.Meta{
		Name:        "enable-kubelet",
		Description: "Enable the kubelet service (started by kubeadm join)",
		Targets:     []action.Target{action.TargetJoin},
		Requires:    []string{"enable-container-runtime"},
		Category:    action.CategoryService,
		Reversible:  true,
	}
	return a
}

// Check is Satisfied when kubelet is enabled.
func (a *EnableKubelet) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	enabled, err := ctx.Host.Services.IsEnabled(ctx.GoContext, "kubelet.service")
	if err != nil {
		return action.Unknown, err
	}
	if enabled {
		return action.Satisfied, nil
	}
	return action.Unsatisfied, nil
}

// Apply enables the unit.
func (a *EnableKubelet) Apply(ctx *action.ExecutionContext) error {
	if err := ctx.Host.Services.Enable(ctx.GoContext, "kubelet.service"); err != nil {
		return action.Classify("enable kubelet", err)
	}
	return nil
}

var _ action.Action = (*EnableKubelet)(nil)
