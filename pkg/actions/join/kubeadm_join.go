package join

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/config"
	"github.com/mensylisir/nodestate/pkg/connector"
)

const kubeletConfPath = "/etc/kubernetes/kubelet.conf"

// KubeadmJoin runs `kubeadm join` with the configured discovery parameters.
// It is the terminal join action and depends on every preparation step.
type KubeadmJoin struct {
	action.Base
	Join config.JoinConfig
}

// NewKubeadmJoin builds the action.
func NewKubeadmJoin(cfg config.JoinConfig) *KubeadmJoin {
	a := &KubeadmJoin{Join: cfg}
	a.ActionMeta = action.Meta{
		Name:        "kubeadm-join",
		Description: "Join the cluster at " + cfg.ControlPlaneEndpoint,
		Targets:     []action.Target{action.TargetJoin},
		Requires: []string{
			"check-kubeadm",
			"disable-swap",
			"load-kernel-modules",
			"apply-sysctl",
			"open-firewall-ports",
			"enable-container-runtime",
			"enable-kubelet",
		},
		Category:     action.CategoryKubernetes,
		Reversible:   true,
		ApplyTimeout: 10 * time.Minute,
	}
	return a
}

// BuildCommand renders the kubeadm join invocation.
func (a *KubeadmJoin) BuildCommand() (string, error) {
	if a.Join.ControlPlaneEndpoint == "" {
		return "", errors.New("join.controlPlaneEndpoint is required")
	}
	if a.Join.Token == "" {
		return "", errors.New("join.token is required")
	}

	args := []string{"kubeadm", "join", a.Join.ControlPlaneEndpoint, "--token", a.Join.Token}
	if len(a.Join.DiscoveryTokenCACertHashes) == 0 {
		args = append(args, "--discovery-token-unsafe-skip-ca-verification")
	} else {
		for _, hash := range a.Join.DiscoveryTokenCACertHashes {
			args = append(args, "--discovery-token-ca-cert-hash", hash)
		}
	}
	if a.Join.NodeName != "" {
		args = append(args, "--node-name", a.Join.NodeName)
	}
	if a.Join.ControlPlane {
		args = append(args, "--control-plane")
		if a.Join.CertificateKey != "" {
			args = append(args, "--certificate-key", a.Join.CertificateKey)
		}
	}
	if len(a.Join.IgnorePreflightErrors) > 0 {
		args = append(args, "--ignore-preflight-errors", strings.Join(a.Join.IgnorePreflightErrors, ","))
	}
	return strings.Join(args, " "), nil
}

// Check is Satisfied when the node already holds a kubelet kubeconfig,
// i.e. it joined some cluster. Re-pointing a joined node at a different
// cluster requires a reset first.
func (a *KubeadmJoin) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	exists, err := ctx.Runner.Exists(ctx.GoContext, kubeletConfPath)
	if err != nil {
		return action.Unknown, err
	}
	if exists {
		return action.Satisfied, nil
	}
	return action.Unsatisfied, nil
}

// Apply runs the join.
func (a *KubeadmJoin) Apply(ctx *action.ExecutionContext) error {
	cmd, err := a.BuildCommand()
	if err != nil {
		return action.NewApplyError(action.UnknownFailure, "invalid join configuration", err)
	}
	ctx.Logger.Infof("joining cluster at %s", a.Join.ControlPlaneEndpoint)
	_, stderr, err := ctx.Runner.Run(ctx.GoContext, cmd, &connector.ExecOptions{Sudo: true})
	if err != nil {
		return action.Classify(fmt.Sprintf("kubeadm join (stderr: %s)", strings.TrimSpace(string(stderr))), err)
	}
	return nil
}

var _ action.Action = (*KubeadmJoin)(nil)
