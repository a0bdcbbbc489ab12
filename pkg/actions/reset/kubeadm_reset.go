// Package reset holds the actions that return a node to its pristine,
// pre-Kubernetes state: kubeadm teardown, service shutdown, CNI link and
// firewall cleanup, and state directory removal.
package reset

import (
	"time"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/connector"
)

const (
	kubeletConfPath = "/etc/kubernetes/kubelet.conf"
	adminConfPath   = "/etc/kubernetes/admin.conf"
)

// KubeadmReset runs `kubeadm reset -f`, the first teardown step: it stops
// static pods and removes the cluster membership before anything else is
// dismantled.
type KubeadmReset struct {
	action.Base
}

// NewKubeadmReset builds the action.
func NewKubeadmReset() *KubeadmReset {
	a := &KubeadmReset{}
	a.ActionMeta = action.Meta{
		Name:         "kubeadm-reset",
		Description:  "Run kubeadm reset to leave the cluster",
		Targets:      []action.Target{action.TargetReset},
		Category:     action.CategoryKubernetes,
		Reversible:   true,
		ApplyTimeout: 5 * time.Minute,
	}
	return a
}

// Check reports Satisfied once no kubeconfig remains under /etc/kubernetes.
func (a *KubeadmReset) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	for _, p := range []string{kubeletConfPath, adminConfPath} {
		exists, err := ctx.Runner.Exists(ctx.GoContext, p)
		if err != nil {
			return action.Unknown, err
		}
		if exists {
			if p == adminConfPath {
				// No behavioral branch on node role; the note is the only
				// difference for control-plane hosts.
				ctx.Logger.Warnf("control-plane residue detected (%s): etcd and certificate data will be removed", p)
			}
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply runs the reset. A missing kubeadm binary is tolerated upstream as
// best-effort: a host without kubeadm has nothing kubeadm-managed to reset.
func (a *KubeadmReset) Apply(ctx *action.ExecutionContext) error {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "kubeadm"); err != nil {
		return action.NewApplyError(action.ExternalToolMissing, "kubeadm not installed", err)
	}
	_, _, err := ctx.Runner.Run(ctx.GoContext, "kubeadm reset -f", &connector.ExecOptions{Sudo: true})
	if err != nil {
		return action.Classify("kubeadm reset", err)
	}
	return nil
}

var _ action.Action = (*KubeadmReset)(nil)
