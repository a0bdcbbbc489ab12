// Package capability exposes the host subsystems actions are allowed to
// touch: the service manager, network links, firewall, and kernel settings.
// Each capability resolves live state at call time; nothing is cached across
// calls, so probes never act on stale identifiers.
package capability

import (
	"github.com/mensylisir/nodestate/pkg/connector"
	"github.com/mensylisir/nodestate/pkg/logger"
)

// Host bundles the capabilities handed to every action through the
// execution context.
type Host struct {
	Services ServiceManager
	Network  Network
	Firewall Firewall
	Kernel   Kernel
}

// NewHost wires the default local implementations. The service manager
// prefers the systemd D-Bus API and falls back to systemctl when the bus is
// not reachable (containers, non-systemd inits).
func NewHost(runner connector.Runner, log *logger.Logger) *Host {
	return &Host{
		Services: NewServiceManager(runner, log),
		Network:  &ipRouteNetwork{runner: runner},
		Firewall: &cmdFirewall{runner: runner},
		Kernel:   &cmdKernel{runner: runner},
	}
}
