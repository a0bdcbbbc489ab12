package capability

import (
	"context"
	"strings"

	"github.com/mensylisir/nodestate/pkg/connector"
)

// Kernel manages loadable modules and sysctl state.
type Kernel interface {
	// ModuleLoaded reports whether a module appears in /proc/modules.
	ModuleLoaded(ctx context.Context, name string) (bool, error)
	// LoadModule modprobes a module.
	LoadModule(ctx context.Context, name string) error
	// SysctlValue returns the current value of a sysctl key.
	SysctlValue(ctx context.Context, key string) (string, error)
	// ReloadSysctl re-applies every sysctl.d drop-in (`sysctl --system`).
	ReloadSysctl(ctx context.Context) error
}

type cmdKernel struct {
	runner connector.Runner
}

func (k *cmdKernel) ModuleLoaded(ctx context.Context, name string) (bool, error) {
	data, err := k.runner.ReadFile(ctx, "/proc/modules")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}
	return false, nil
}

func (k *cmdKernel) LoadModule(ctx context.Context, name string) error {
	_, _, err := k.runner.Run(ctx, "modprobe "+name, &connector.ExecOptions{Sudo: true})
	return err
}

func (k *cmdKernel) SysctlValue(ctx context.Context, key string) (string, error) {
	stdout, _, err := k.runner.Run(ctx, "sysctl -n "+key, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (k *cmdKernel) ReloadSysctl(ctx context.Context) error {
	_, _, err := k.runner.Run(ctx, "sysctl --system", &connector.ExecOptions{Sudo: true})
	return err
}

var _ Kernel = (*cmdKernel)(nil)
