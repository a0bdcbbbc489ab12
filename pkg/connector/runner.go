// Package connector executes commands on the local host. The reconciler core
// never shells out directly; probes and applies go through a Runner so tests
// can substitute a fake.
package connector

import (
	"context"
	"time"
)

// ExecOptions tunes a single command execution.
type ExecOptions struct {
	// Sudo prefixes the command with non-interactive sudo. Most probes run
	// without it; most applies need it.
	Sudo bool
	// Timeout bounds the execution; zero means the caller's context governs.
	Timeout time.Duration
	// Env is appended to the inherited environment, "KEY=VALUE" entries.
	Env []string
}

// Runner executes commands and small file operations on one host. All
// methods honor ctx cancellation.
type Runner interface {
	// Run executes cmd through the shell and returns captured stdout/stderr.
	// A non-zero exit returns a *CommandError.
	Run(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error)

	// LookPath reports the absolute path of an executable, or an error when
	// it is not installed. Results are cached for the life of the runner.
	LookPath(ctx context.Context, name string) (string, error)

	// ReadFile returns the contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path with the given mode, via sudo when
	// opts.Sudo is set.
	WriteFile(ctx context.Context, path string, data []byte, mode string, opts *ExecOptions) error

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Remove deletes path recursively, tolerating absence.
	Remove(ctx context.Context, path string, opts *ExecOptions) error
}
