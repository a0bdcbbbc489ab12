package connector

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// LocalRunner executes commands on the machine the process runs on, through
// /bin/sh. Executable lookups are cached per runner instance; a runner lives
// for one reconciliation run, so the cache can never serve stale results
// across runs.
type LocalRunner struct {
	mu        sync.Mutex
	pathCache map[string]string
}

// NewLocalRunner returns a Runner for the local host.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{pathCache: make(map[string]string)}
}

func (r *LocalRunner) Run(ctx context.Context, cmd string, opts *ExecOptions) ([]byte, []byte, error) {
	effective := ExecOptions{}
	if opts != nil {
		effective = *opts
	}

	full := cmd
	if effective.Sudo && os.Geteuid() != 0 {
		full = "sudo -n -E -- " + cmd
	}

	runCtx := ctx
	if effective.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, effective.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, "/bin/sh", "-c", full)
	if len(effective.Env) > 0 {
		c.Env = append(os.Environ(), effective.Env...)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	err := c.Run()
	stdout, stderr := stdoutBuf.Bytes(), stderrBuf.Bytes()
	if err == nil {
		return stdout, stderr, nil
	}

	if runCtx.Err() != nil {
		return stdout, stderr, &CommandError{Cmd: cmd, ExitCode: -1, Stdout: string(stdout), Stderr: string(stderr), Underlying: runCtx.Err()}
	}

	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			exitCode = status.ExitStatus()
		}
	}
	return stdout, stderr, &CommandError{Cmd: cmd, ExitCode: exitCode, Stdout: string(stdout), Stderr: string(stderr), Underlying: err}
}

func (r *LocalRunner) LookPath(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	if p, ok := r.pathCache[name]; ok {
		r.mu.Unlock()
		if p == "" {
			return "", &CommandError{Cmd: "command -v " + name, ExitCode: 127, Underlying: exec.ErrNotFound}
		}
		return p, nil
	}
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := exec.LookPath(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.pathCache[name] = ""
		return "", &CommandError{Cmd: "command -v " + name, ExitCode: 127, Underlying: exec.ErrNotFound}
	}
	r.pathCache[name] = p
	return p, nil
}

func (r *LocalRunner) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (r *LocalRunner) WriteFile(ctx context.Context, path string, data []byte, mode string, opts *ExecOptions) error {
	if opts == nil || !opts.Sudo {
		if err := ctx.Err(); err != nil {
			return err
		}
		perm := os.FileMode(0644)
		if mode != "" {
			var parsed uint32
			if _, err := fmt.Sscanf(mode, "%o", &parsed); err == nil {
				perm = os.FileMode(parsed)
			}
		}
		return os.WriteFile(path, data, perm)
	}

	// With sudo, stage through tee so the write runs privileged while the
	// content stays out of the argument list.
	cmd := fmt.Sprintf("tee %s > /dev/null", shellEscape(path))
	c := exec.CommandContext(ctx, "/bin/sh", "-c", "sudo -n -- "+cmd)
	c.Stdin = bytes.NewReader(data)
	var stderrBuf bytes.Buffer
	c.Stderr = &stderrBuf
	if err := c.Run(); err != nil {
		return &CommandError{Cmd: cmd, ExitCode: -1, Stderr: stderrBuf.String(), Underlying: err}
	}
	if mode != "" {
		_, _, err := r.Run(ctx, fmt.Sprintf("chmod %s %s", mode, shellEscape(path)), &ExecOptions{Sudo: true})
		return err
	}
	return nil
}

func (r *LocalRunner) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (r *LocalRunner) Remove(ctx context.Context, path string, opts *ExecOptions) error {
	sudo := opts != nil && opts.Sudo
	_, _, err := r.Run(ctx, "rm -rf -- "+shellEscape(path), &ExecOptions{Sudo: sudo})
	return err
}

var _ Runner = (*LocalRunner)(nil)
