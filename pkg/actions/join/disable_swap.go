package join

import (
	"fmt"
	"strings"
	"time"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/connector"
)

// DisableSwap turns off active swap and comments the swap entries in
// /etc/fstab so the kubelet's preflight passes and the state survives a
// reboot.
type DisableSwap struct {
	action.Base
}

// NewDisableSwap builds the action.
func NewDisableSwap() *DisableSwap {
	a := &DisableSwap{}
	a.ActionMeta = action.Meta{
		Name:        "disable-swap",
		Description: "Turn off swap and comment swap entries in /etc/fstab",
		Targets:     []action.Target{action.TargetJoin},
		Category:    action.CategoryKernel,
		Reversible:  true,
	}
	return a
}

// SwapActive parses `swapon --summary` style output or /proc/swaps content:
// anything beyond the header line means swap is on.
func SwapActive(output string) bool {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return false
	}
	if len(lines) == 1 {
		// A lone header line ("Filename Type Size ...") means no swap.
		return !strings.Contains(lines[0], "Filename")
	}
	return true
}

// Check probes swap state via swapon, falling back to /proc/swaps where the
// binary is unavailable.
func (a *DisableSwap) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	stdout, _, err := ctx.Runner.Run(ctx.GoContext, "swapon --summary", nil)
	if err != nil {
		data, readErr := ctx.Runner.ReadFile(ctx.GoContext, "/proc/swaps")
		if readErr != nil {
			return action.Unknown, fmt.Errorf("swapon failed (%v) and /proc/swaps unreadable (%v)", err, readErr)
		}
		stdout = data
	}
	if SwapActive(string(stdout)) {
		return action.Unsatisfied, nil
	}
	return action.Satisfied, nil
}

// Apply runs swapoff and comments fstab swap lines, keeping a timestamped
// backup of fstab. swapoff on a swap-less host exits cleanly.
func (a *DisableSwap) Apply(ctx *action.ExecutionContext) error {
	sudo := &connector.ExecOptions{Sudo: true}

	if _, _, err := ctx.Runner.Run(ctx.GoContext, "swapoff -a", sudo); err != nil {
		return action.Classify("swapoff -a", err)
	}

	backup := fmt.Sprintf("cp /etc/fstab /etc/fstab.bak-nodestate-%d", time.Now().Unix())
	if _, _, err := ctx.Runner.Run(ctx.GoContext, backup, sudo); err != nil {
		return action.Classify("backup /etc/fstab", err)
	}

	sed := `sed -E -i '/^[^#].*\bswap\b/s/^/#/' /etc/fstab`
	if _, _, err := ctx.Runner.Run(ctx.GoContext, sed, sudo); err != nil {
		return action.Classify("comment fstab swap entries", err)
	}
	ctx.Logger.Infof("swap disabled; fstab entries commented")
	return nil
}

var _ action.Action = (*DisableSwap)(nil)
