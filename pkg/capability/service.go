package capability

import (
	"context"
	"strings"

	systemddbus "github.com/coreos/go-systemd/v22/dbus"
	"github.com/pkg/errors"

	"github.com/mensylisir/nodestate/pkg/connector"
	"github.com/mensylisir/nodestate/pkg/logger"
)

// ServiceManager manages systemd units on the host.
type ServiceManager interface {
	IsActive(ctx context.Context, unit string) (bool, error)
	IsEnabled(ctx context.Context, unit string) (bool, error)
	Stop(ctx context.Context, unit string) error
	Disable(ctx context.Context, unit string) error
	// EnableNow enables the unit and starts it, `systemctl enable --now`.
	EnableNow(ctx context.Context, unit string) error
	// Enable enables the unit without starting it.
	Enable(ctx context.Context, unit string) error
	DaemonReload(ctx context.Context) error
}

// NewServiceManager returns a D-Bus backed manager when the system bus is
// reachable, otherwise a systemctl-over-shell fallback.
func NewServiceManager(runner connector.Runner, log *logger.Logger) ServiceManager {
	conn, err := systemddbus.NewSystemConnectionContext(context.Background())
	if err != nil {
		if log != nil {
			log.Debugf("systemd D-Bus unavailable, falling back to systemctl: %v", err)
		}
		return &systemctlManager{runner: runner}
	}
	return &dbusManager{conn: conn, fallback: &systemctlManager{runner: runner}}
}

// dbusManager talks to systemd over D-Bus.
type dbusManager struct {
	conn     *systemddbus.Conn
	fallback *systemctlManager
}

func (m *dbusManager) unitProperty(ctx context.Context, unit, prop string) (string, error) {
	p, err := m.conn.GetUnitPropertyContext(ctx, unit, prop)
	if err != nil {
		return "", errors.Wrapf(err, "query %s of unit %s", prop, unit)
	}
	s, ok := p.Value.Value().(string)
	if !ok {
		return "", errors.Errorf("unexpected type for %s of unit %s", prop, unit)
	}
	return s, nil
}

func (m *dbusManager) IsActive(ctx context.Context, unit string) (bool, error) {
	state, err := m.unitProperty(ctx, unit, "ActiveState")
	if err != nil {
		return false, err
	}
	return state == "active" || state == "activating", nil
}

func (m *dbusManager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	state, err := m.unitProperty(ctx, unit, "UnitFileState")
	if err != nil {
		return false, err
	}
	return state == "enabled" || state == "enabled-runtime", nil
}

func (m *dbusManager) Stop(ctx context.Context, unit string) error {
	ch := make(chan string, 1)
	if _, err := m.conn.StopUnitContext(ctx, unit, "replace", ch); err != nil {
		return errors.Wrapf(err, "stop unit %s", unit)
	}
	select {
	case res := <-ch:
		if res != "done" && res != "skipped" {
			return errors.Errorf("stop unit %s finished with result %q", unit, res)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *dbusManager) Disable(ctx context.Context, unit string) error {
	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		return errors.Wrapf(err, "disable unit %s", unit)
	}
	return nil
}

func (m *dbusManager) Enable(ctx context.Context, unit string) error {
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return errors.Wrapf(err, "enable unit %s", unit)
	}
	return nil
}

func (m *dbusManager) EnableNow(ctx context.Context, unit string) error {
	if err := m.Enable(ctx, unit); err != nil {
		return err
	}
	ch := make(chan string, 1)
	if _, err := m.conn.StartUnitContext(ctx, unit, "replace", ch); err != nil {
		return errors.Wrapf(err, "start unit %s", unit)
	}
	select {
	case res := <-ch:
		if res != "done" && res != "skipped" {
			return errors.Errorf("start unit %s finished with result %q", unit, res)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *dbusManager) DaemonReload(ctx context.Context) error {
	return m.conn.ReloadContext(ctx)
}

// systemctlManager shells out to systemctl. Used when the D-Bus socket is
// not reachable, and directly by tests.
type systemctlManager struct {
	runner connector.Runner
}

func (m *systemctlManager) IsActive(ctx context.Context, unit string) (bool, error) {
	stdout, _, err := m.runner.Run(ctx, "systemctl is-active "+unit, nil)
	state := strings.TrimSpace(string(stdout))
	if err != nil {
		// is-active exits non-zero for inactive/unknown units; that is an
		// answer, not a failure.
		if state != "" {
			return false, nil
		}
		return false, err
	}
	return state == "active" || state == "activating", nil
}

func (m *systemctlManager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	stdout, _, err := m.runner.Run(ctx, "systemctl is-enabled "+unit, nil)
	state := strings.TrimSpace(string(stdout))
	if err != nil {
		if state != "" {
			return false, nil
		}
		return false, err
	}
	return state == "enabled" || state == "enabled-runtime", nil
}

func (m *systemctlManager) Stop(ctx context.Context, unit string) error {
	_, _, err := m.runner.Run(ctx, "systemctl stop "+unit, &connector.ExecOptions{Sudo: true})
	return err
}

func (m *systemctlManager) Disable(ctx context.Context, unit string) error {
	_, _, err := m.runner.Run(ctx, "systemctl disable "+unit, &connector.ExecOptions{Sudo: true})
	return err
}

func (m *systemctlManager) Enable(ctx context.Context, unit string) error {
	_, _, err := m.runner.Run(ctx, "systemctl enable "+unit, &connector.ExecOptions{Sudo: true})
	return err
}

func (m *systemctlManager) EnableNow(ctx context.Context, unit string) error {
	_, _, err := m.runner.Run(ctx, "systemctl enable --now "+unit, &connector.ExecOptions{Sudo: true})
	return err
}

func (m *systemctlManager) DaemonReload(ctx context.Context) error {
	_, _, err := m.runner.Run(ctx, "systemctl daemon-reload", &connector.ExecOptions{Sudo: true})
	return err
}

var (
	_ ServiceManager = (*dbusManager)(nil)
	_ ServiceManager = (*systemctlManager)(nil)
)
