// Package join holds the actions that prepare a host for kubeadm and join
// it to a cluster: swap, kernel modules, sysctl, firewall ports, service
// enablement, and the join itself.
package join

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mensylisir/nodestate/pkg/action"
)

// CheckKubeadm gates the join on a usable kubeadm binary. It is probe-only:
// Apply never succeeds, because installing kubeadm is out of scope. It fails
// with a message telling the operator what is missing.
type CheckKubeadm struct {
	action.Base
	MinVersion string
}

// NewCheckKubeadm builds the action. minVersion may be empty to disable the
// version gate.
func NewCheckKubeadm(minVersion string) *CheckKubeadm {
	a := &CheckKubeadm{MinVersion: minVersion}
	a.ActionMeta = action.Meta{
		Name:        "check-kubeadm",
		Description: "Verify kubeadm is installed and recent enough",
		Targets:     []action.Target{action.TargetJoin},
		Category:    action.CategoryKubernetes,
		Reversible:  false,
	}
	return a
}

// Check is Satisfied when kubeadm exists and meets the minimum version.
func (a *CheckKubeadm) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	if _, err := ctx.Runner.LookPath(ctx.GoContext, "kubeadm"); err != nil {
		return action.Unsatisfied, nil
	}
	if a.MinVersion == "" {
		return action.Satisfied, nil
	}

	stdout, _, err := ctx.Runner.Run(ctx.GoContext, "kubeadm version -o short", nil)
	if err != nil {
		return action.Unknown, err
	}
	installed, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(string(stdout)), "v"))
	if err != nil {
		return action.Unknown, err
	}
	minimum, err := semver.NewVersion(a.MinVersion)
	if err != nil {
		return action.Unknown, err
	}
	if installed.LessThan(minimum) {
		ctx.Logger.Warnf("kubeadm %s is older than required %s", installed, minimum)
		return action.Unsatisfied, nil
	}
	return action.Satisfied, nil
}

// Apply cannot install kubeadm; it reports what the operator must do.
func (a *CheckKubeadm) Apply(ctx *action.ExecutionContext) error {
	return action.NewApplyError(action.UnknownFailure,
		"kubeadm missing or too old; install kubeadm >= "+a.MinVersion+" before joining", nil)
}

var _ action.Action = (*CheckKubeadm)(nil)
