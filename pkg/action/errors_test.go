package action

import (
	"context"
	"os/exec"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/nodestate/pkg/connector"
)

func TestClassifyCommandErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{
			name: "exit 127",
			err:  &connector.CommandError{Cmd: "ipvsadm --clear", ExitCode: 127},
			kind: ExternalToolMissing,
		},
		{
			name: "command not found on stderr",
			err:  &connector.CommandError{Cmd: "x", ExitCode: 1, Stderr: "sh: x: command not found"},
			kind: ExternalToolMissing,
		},
		{
			name: "permission denied",
			err:  &connector.CommandError{Cmd: "rm", ExitCode: 1, Stderr: "rm: cannot remove: Permission denied"},
			kind: PermissionDenied,
		},
		{
			name: "sudo needs password",
			err:  &connector.CommandError{Cmd: "swapoff", ExitCode: 1, Stderr: "sudo: a password is required"},
			kind: PermissionDenied,
		},
		{
			name: "device busy",
			err:  &connector.CommandError{Cmd: "ip link delete cni0", ExitCode: 2, Stderr: "RTNETLINK answers: Device or resource busy"},
			kind: ResourceBusy,
		},
		{
			name: "module in use",
			err:  &connector.CommandError{Cmd: "modprobe -r br_netfilter", ExitCode: 1, Stderr: "modprobe: FATAL: Module br_netfilter is in use"},
			kind: ResourceBusy,
		},
		{
			name: "deadline via command",
			err:  &connector.CommandError{Cmd: "kubeadm join", ExitCode: -1, Underlying: context.DeadlineExceeded},
			kind: Timeout,
		},
		{
			name: "ordinary failure",
			err:  &connector.CommandError{Cmd: "kubeadm join", ExitCode: 1, Stderr: "couldn't validate the identity of the API Server"},
			kind: UnknownFailure,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ae := Classify("test", tc.err)
			require.NotNil(t, ae)
			assert.Equal(t, tc.kind, ae.Kind)
		})
	}
}

func TestClassifyDirectErrors(t *testing.T) {
	assert.Equal(t, Timeout, Classify("t", context.DeadlineExceeded).Kind)
	assert.Equal(t, ExternalToolMissing, Classify("t", exec.ErrNotFound).Kind)
	assert.Equal(t, UnknownFailure, Classify("t", errors.New("whatever")).Kind)
	assert.Nil(t, Classify("t", nil))
}

func TestClassifyPreservesExistingApplyError(t *testing.T) {
	orig := NewApplyError(ResourceBusy, "link cni0", nil)
	wrapped := errors.Wrap(orig, "delete link")

	got := Classify("outer", wrapped)
	assert.Equal(t, ResourceBusy, got.Kind)
	assert.Equal(t, "link cni0", got.Detail)
}

func TestNonFatal(t *testing.T) {
	assert.True(t, NonFatal(NewApplyError(ExternalToolMissing, "", nil)))
	assert.True(t, NonFatal(NewApplyError(ResourceBusy, "", nil)))
	assert.False(t, NonFatal(NewApplyError(PermissionDenied, "", nil)))
	assert.False(t, NonFatal(NewApplyError(Timeout, "", nil)))
	assert.False(t, NonFatal(NewApplyError(UnknownFailure, "", nil)))
	assert.False(t, NonFatal(errors.New("bare")))
	assert.False(t, NonFatal(nil))
}

func TestApplyErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	ae := NewApplyError(PermissionDenied, "write /etc/fstab", cause)

	assert.ErrorIs(t, ae, cause)
	assert.Contains(t, ae.Error(), "permission-denied")
	assert.Contains(t, ae.Error(), "write /etc/fstab")
	assert.Contains(t, ae.Error(), "root cause")
}

func TestParseTarget(t *testing.T) {
	got, ok := ParseTarget("join")
	assert.True(t, ok)
	assert.Equal(t, TargetJoin, got)

	got, ok = ParseTarget("reset")
	assert.True(t, ok)
	assert.Equal(t, TargetReset, got)

	_, ok = ParseTarget("Join")
	assert.False(t, ok)
	_, ok = ParseTarget("")
	assert.False(t, ok)
}

func TestCheckResultString(t *testing.T) {
	assert.Equal(t, "satisfied", Satisfied.String())
	assert.Equal(t, "unsatisfied", Unsatisfied.String())
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "invalid", CheckResult(42).String())
}

func TestMetaHasTarget(t *testing.T) {
	m := Meta{Targets: []Target{TargetJoin}}
	assert.True(t, m.HasTarget(TargetJoin))
	assert.False(t, m.HasTarget(TargetReset))
}
