// Package actions wires the built-in join and reset action sets into a
// registry. Registration order is the tie-breaker for plan ordering, so the
// lists below are written in the intended execution order even where no
// dependency edge forces it.
package actions

import (
	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions/join"
	"github.com/mensylisir/nodestate/pkg/actions/reset"
	"github.com/mensylisir/nodestate/pkg/config"
	"github.com/mensylisir/nodestate/pkg/plan"
)

// BuildRegistry constructs the full action registry from cfg.
func BuildRegistry(cfg *config.Config) (*plan.Registry, error) {
	r := plan.NewRegistry()

	all := []action.Action{
		// join
		join.NewCheckKubeadm(cfg.Join.MinKubeadmVersion),
		join.NewDisableSwap(),
		join.NewLoadKernelModules(),
		join.NewApplySysctl(),
		join.NewOpenFirewallPorts(cfg.Join.FirewallPorts),
		join.NewEnableContainerRuntime(cfg.Join.ContainerRuntimeUnit),
		join.NewEnableKubelet(),
		join.NewKubeadmJoin(cfg.Join),

		// reset
		reset.NewKubeadmReset(),
		reset.NewStopKubelet(),
		reset.NewRemoveCNIInterfaces(cfg.Reset.ExtraInterfacePatterns),
		reset.NewClearIPVS(),
		reset.NewFlushIptables(),
		reset.NewReloadFirewall(),
		reset.NewRemoveStateDirs(cfg.Reset.ExtraStateDirs),
		reset.NewRemoveKernelConfig(),
	}

	for _, a := range all {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
