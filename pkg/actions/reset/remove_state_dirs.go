package reset

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/connector"
)

// defaultStateDirs is everything kubeadm, kubelet, etcd, and the CNI
// plugins persist on disk.
var defaultStateDirs = []string{
	"/etc/kubernetes",
	"/var/lib/kubelet",
	"/var/lib/etcd",
	"/etc/cni/net.d",
	"/var/lib/cni",
	"/root/.kube",
}

// RemoveStateDirs deletes the on-disk Kubernetes state. Ordered after
// service shutdown and kubeadm reset: removing directories under a running
// kubelet would race its writes.
type RemoveStateDirs struct {
	action.Base
	Dirs []string
}

// NewRemoveStateDirs builds the action; extra directories come from the
// reset config.
func NewRemoveStateDirs(extraDirs []string) *RemoveStateDirs {
	a := &RemoveStateDirs{
		Dirs: append(append([]string{}, defaultStateDirs...), extraDirs...),
	}
	a.ActionMeta = action.Meta{
		Name:        "remove-kube-state",
		Description: "Remove Kubernetes state directories (" + strings.Join(a.Dirs, ", ") + ")",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"kubeadm-reset", "stop-kubelet", "remove-cni-interfaces"},
		Category:    action.CategoryFilesystem,
		Reversible:  false,
	}
	return a
}

// Check is Satisfied when none of the directories exist.
func (a *RemoveStateDirs) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	for _, dir := range a.Dirs {
		exists, err := ctx.Runner.Exists(ctx.GoContext, dir)
		if err != nil {
			return action.Unknown, err
		}
		if exists {
			return action.Unsatisfied, nil
		}
	}
	return action.Satisfied, nil
}

// Apply removes every directory; rm -rf semantics tolerate absence.
func (a *RemoveStateDirs) Apply(ctx *action.ExecutionContext) error {
	for _, dir := range a.Dirs {
		if err := ctx.Runner.Remove(ctx.GoContext, dir, &connector.ExecOptions{Sudo: true}); err != nil {
			return action.Classify("remove "+dir, err)
		}
		ctx.Logger.Debugf("removed %s", dir)
	}
	return nil
}

var _ action.Action = (*RemoveStateDirs)(nil)
