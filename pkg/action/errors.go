package action

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mensylisir/nodestate/pkg/connector"
)

// ErrorKind classifies an apply failure. The classification decides whether
// the failure is fatal: a missing tool or a still-referenced resource is
// best-effort territory (the action is reported Skipped), everything else
// fails the action.
type ErrorKind string

const (
	PermissionDenied    ErrorKind = "permission-denied"
	ResourceBusy        ErrorKind = "resource-busy"
	ExternalToolMissing ErrorKind = "external-tool-missing"
	Timeout             ErrorKind = "timeout"
	UnknownFailure      ErrorKind = "unknown"
)

// ApplyError is the classified failure of an Apply call.
type ApplyError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// NewApplyError builds an ApplyError with an explicit kind.
func NewApplyError(kind ErrorKind, detail string, cause error) *ApplyError {
	return &ApplyError{Kind: kind, Detail: detail, Cause: cause}
}

// NonFatal reports whether err may be tolerated as best-effort: the outcome
// is recorded as Skipped and the run's status is not degraded by it.
func NonFatal(err error) bool {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Kind == ExternalToolMissing || ae.Kind == ResourceBusy
	}
	return false
}

// Classify wraps err into an ApplyError, inspecting command errors for the
// usual failure signatures. Pass detail describing what was being attempted.
func Classify(detail string, err error) *ApplyError {
	if err == nil {
		return nil
	}
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ApplyError{Kind: Timeout, Detail: detail, Cause: err}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &ApplyError{Kind: ExternalToolMissing, Detail: detail, Cause: err}
	}

	var cmdErr *connector.CommandError
	if errors.As(err, &cmdErr) {
		stderr := strings.ToLower(cmdErr.Stderr)
		switch {
		case cmdErr.ExitCode == 127 || strings.Contains(stderr, "command not found") ||
			strings.Contains(stderr, "not found"):
			return &ApplyError{Kind: ExternalToolMissing, Detail: detail, Cause: err}
		case strings.Contains(stderr, "permission denied") ||
			strings.Contains(stderr, "operation not permitted") ||
			strings.Contains(stderr, "a password is required"):
			return &ApplyError{Kind: PermissionDenied, Detail: detail, Cause: err}
		case strings.Contains(stderr, "resource busy") ||
			strings.Contains(stderr, "device or resource busy") ||
			strings.Contains(stderr, "is in use") ||
			strings.Contains(stderr, "module is in use"):
			return &ApplyError{Kind: ResourceBusy, Detail: detail, Cause: err}
		case errors.Is(cmdErr.Underlying, context.DeadlineExceeded):
			return &ApplyError{Kind: Timeout, Detail: detail, Cause: err}
		}
	}
	return &ApplyError{Kind: UnknownFailure, Detail: detail, Cause: err}
}
