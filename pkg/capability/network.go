package capability

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/mensylisir/nodestate/pkg/connector"
)

// Network inspects and removes network links. Interfaces is evaluated fresh
// on every call; callers must not hold results across actions.
type Network interface {
	// Interfaces returns the names of all links currently present.
	Interfaces(ctx context.Context) ([]string, error)
	// MatchInterfaces returns live link names matching any of the shell-style
	// patterns (cali*, cni0, ...).
	MatchInterfaces(ctx context.Context, patterns []string) ([]string, error)
	// DeleteLink brings a link down and deletes it.
	DeleteLink(ctx context.Context, name string) error
	// FlushRoutes removes every route installed by the given routing
	// protocol ("bird" for calico's BGP daemon).
	FlushRoutes(ctx context.Context, proto string) error
}

type ipRouteNetwork struct {
	runner connector.Runner
}

// ParseLinkNames extracts interface names from `ip -o link show` output.
// Lines look like "3: cni0: <BROADCAST,...> mtu 1500 ..."; VLAN-style names
// carry an "@parent" suffix that is not part of the device name.
func ParseLinkNames(output string) []string {
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.SplitN(line, ": ", 3)
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[1])
		if at := strings.Index(name, "@"); at >= 0 {
			name = name[:at]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (n *ipRouteNetwork) Interfaces(ctx context.Context) ([]string, error) {
	stdout, _, err := n.runner.Run(ctx, "ip -o link show", nil)
	if err != nil {
		return nil, errors.Wrap(err, "list network links")
	}
	return ParseLinkNames(string(stdout)), nil
}

func (n *ipRouteNetwork) MatchInterfaces(ctx context.Context, patterns []string) ([]string, error) {
	all, err := n.Interfaces(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, name := range all {
		for _, pat := range patterns {
			if ok, _ := path.Match(pat, name); ok {
				matched = append(matched, name)
				break
			}
		}
	}
	return matched, nil
}

func (n *ipRouteNetwork) DeleteLink(ctx context.Context, name string) error {
	sudo := &connector.ExecOptions{Sudo: true}
	// Down first; deleting an up link works too, but some CNI drivers leave
	// routes behind unless the link goes down before removal.
	_, _, _ = n.runner.Run(ctx, "ip link set "+name+" down", sudo)
	_, _, err := n.runner.Run(ctx, "ip link delete "+name, sudo)
	return err
}

func (n *ipRouteNetwork) FlushRoutes(ctx context.Context, proto string) error {
	_, _, err := n.runner.Run(ctx, "ip route flush proto "+proto, &connector.ExecOptions{Sudo: true})
	return err
}

var _ Network = (*ipRouteNetwork)(nil)
