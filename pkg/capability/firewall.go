package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/mensylisir/nodestate/pkg/connector"
)

// Firewall covers both firewalld zone management and raw iptables state.
type Firewall interface {
	// FirewalldActive reports whether firewalld is running.
	FirewalldActive(ctx context.Context) (bool, error)
	// PortOpen reports whether a permanent port rule exists, "6443/tcp" form.
	PortOpen(ctx context.Context, port string) (bool, error)
	// OpenPort adds a permanent port rule. Callers reload afterwards.
	OpenPort(ctx context.Context, port string) error
	// Reload reloads the firewalld runtime configuration.
	Reload(ctx context.Context) error
	// FlushIptables flushes and deletes user chains in the given tables.
	FlushIptables(ctx context.Context, tables []string) error
}

type cmdFirewall struct {
	runner connector.Runner
}

func (f *cmdFirewall) FirewalldActive(ctx context.Context) (bool, error) {
	stdout, _, err := f.runner.Run(ctx, "firewall-cmd --state", nil)
	if err != nil {
		// "not running" exits non-zero; a missing binary is for the caller
		// to classify.
		if strings.Contains(strings.TrimSpace(string(stdout)), "not running") {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(stdout)) == "running", nil
}

func (f *cmdFirewall) PortOpen(ctx context.Context, port string) (bool, error) {
	stdout, _, err := f.runner.Run(ctx, "firewall-cmd --permanent --query-port="+port, &connector.ExecOptions{Sudo: true})
	if err != nil {
		// query-port exits 1 with "no" when the rule is absent.
		if strings.TrimSpace(string(stdout)) == "no" {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(stdout)) == "yes", nil
}

func (f *cmdFirewall) OpenPort(ctx context.Context, port string) error {
	_, _, err := f.runner.Run(ctx, "firewall-cmd --permanent --add-port="+port, &connector.ExecOptions{Sudo: true})
	return err
}

func (f *cmdFirewall) Reload(ctx context.Context) error {
	_, _, err := f.runner.Run(ctx, "firewall-cmd --reload", &connector.ExecOptions{Sudo: true})
	return err
}

func (f *cmdFirewall) FlushIptables(ctx context.Context, tables []string) error {
	sudo := &connector.ExecOptions{Sudo: true}
	for _, table := range tables {
		if _, _, err := f.runner.Run(ctx, fmt.Sprintf("iptables -t %s -F", table), sudo); err != nil {
			return err
		}
		if _, _, err := f.runner.Run(ctx, fmt.Sprintf("iptables -t %s -X", table), sudo); err != nil {
			return err
		}
	}
	return nil
}

var _ Firewall = (*cmdFirewall)(nil)
