package connector

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellEscape(t *testing.T) {
	assert.Equal(t, "'plain'", shellEscape("plain"))
	assert.Equal(t, "'/var/lib/kubelet'", shellEscape("/var/lib/kubelet"))
	assert.Equal(t, `'it'\''s'`, shellEscape("it's"))
	assert.Equal(t, "'a b; rm -rf /'", shellEscape("a b; rm -rf /"))
}

func TestRunCapturesStdoutAndStderr(t *testing.T) {
	r := NewLocalRunner()
	stdout, stderr, err := r.Run(context.Background(), "echo out; echo err >&2", nil)
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(stdout))
	assert.Equal(t, "err\n", string(stderr))
}

func TestRunReportsExitCode(t *testing.T) {
	r := NewLocalRunner()
	_, _, err := r.Run(context.Background(), "echo partial; exit 3", nil)
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "partial\n", cmdErr.Stdout)
}

func TestRunHonorsTimeout(t *testing.T) {
	r := NewLocalRunner()
	start := time.Now()
	_, _, err := r.Run(context.Background(), "sleep 10", &ExecOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.ErrorIs(t, cmdErr.Underlying, context.DeadlineExceeded)
}

func TestRunAppendsEnv(t *testing.T) {
	r := NewLocalRunner()
	stdout, _, err := r.Run(context.Background(), "printf %s \"$NODESTATE_TEST\"", &ExecOptions{Env: []string{"NODESTATE_TEST=yes"}})
	require.NoError(t, err)
	assert.Equal(t, "yes", string(stdout))
}

func TestLookPathMissingToolIsNotFound(t *testing.T) {
	r := NewLocalRunner()
	_, err := r.LookPath(context.Background(), "definitely-not-installed-tool")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 127, cmdErr.ExitCode)

	// Second lookup serves the cached miss with the same shape.
	_, err = r.LookPath(context.Background(), "definitely-not-installed-tool")
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestLookPathFindsShell(t *testing.T) {
	r := NewLocalRunner()
	p, err := r.LookPath(context.Background(), "sh")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "/sh"))

	again, err := r.LookPath(context.Background(), "sh")
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestFileOperations(t *testing.T) {
	r := NewLocalRunner()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "probe.conf")

	exists, err := r.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, r.WriteFile(ctx, path, []byte("net.ipv4.ip_forward = 1\n"), "0644", nil))

	exists, err = r.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := r.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "net.ipv4.ip_forward = 1\n", string(data))

	require.NoError(t, r.Remove(ctx, path, nil))
	exists, err = r.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	// Removing an absent path is not an error.
	require.NoError(t, r.Remove(ctx, path, nil))
}

func TestRunRejectsCancelledContext(t *testing.T) {
	r := NewLocalRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.Run(ctx, "echo never", nil)
	require.Error(t, err)
}

func TestCommandErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	cmdErr := &CommandError{Cmd: "modprobe overlay", ExitCode: 1, Stderr: "not permitted", Underlying: cause}

	msg := cmdErr.Error()
	assert.Contains(t, msg, "modprobe overlay")
	assert.Contains(t, msg, "1")
	assert.ErrorIs(t, cmdErr, cause)
}
