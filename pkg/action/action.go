// Package action defines the atomic unit of host state change. An Action
// pairs a read-only Check (probe) with an idempotent Apply, declares the
// target states it belongs to, its predecessors, and the host subsystem it
// is allowed to touch.
package action

import (
	"context"
	"time"

	"github.com/mensylisir/nodestate/pkg/capability"
	"github.com/mensylisir/nodestate/pkg/connector"
	"github.com/mensylisir/nodestate/pkg/logger"
)

// Target names one of the two node states the reconciler can drive toward.
type Target string

const (
	TargetJoin  Target = "join"
	TargetReset Target = "reset"
)

// ParseTarget validates a user-supplied target name.
func ParseTarget(s string) (Target, bool) {
	switch Target(s) {
	case TargetJoin, TargetReset:
		return Target(s), true
	default:
		return "", false
	}
}

// CheckResult is the tri-state answer of a probe.
type CheckResult int

const (
	// Unsatisfied means the action's apply must run.
	Unsatisfied CheckResult = iota
	// Satisfied means the desired state already holds; apply is skipped.
	Satisfied
	// Unknown means the probe could not decide (tool missing, timeout).
	// The reconciler treats it as Unsatisfied and logs a warning; apply must
	// therefore be idempotent on its own.
	Unknown
)

// String returns the probe result name used in reports.
func (r CheckResult) String() string {
	switch r {
	case Satisfied:
		return "satisfied"
	case Unsatisfied:
		return "unsatisfied"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Category is the host subsystem an action declares as its side-effect
// boundary. Execution is sequential, but the declaration keeps actions
// honest and leaves room for a conflict matrix later.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryFilesystem Category = "filesystem"
	CategoryService    Category = "service"
	CategoryFirewall   Category = "firewall"
	CategoryKernel     Category = "kernel"
	CategoryKubernetes Category = "kubernetes"
)

// Meta is the immutable description of an action.
type Meta struct {
	// Name uniquely identifies the action within the registry.
	Name string
	// Description is the one-line human summary shown in plans and reports.
	Description string
	// Targets lists the target states this action participates in.
	Targets []Target
	// Requires names the actions that must complete before this one.
	Requires []string
	// Category declares the subsystem the apply is confined to.
	Category Category
	// Reversible records whether a counterpart action exists in the other
	// target state.
	Reversible bool
	// CheckTimeout and ApplyTimeout override the run-level defaults when
	// non-zero.
	CheckTimeout time.Duration
	ApplyTimeout time.Duration
}

// HasTarget reports whether the action participates in target.
func (m *Meta) HasTarget(t Target) bool {
	for _, have := range m.Targets {
		if have == t {
			return true
		}
	}
	return false
}

// ExecutionContext carries everything an action may touch. Actions never
// hold OS handles of their own; all host access goes through the runner and
// the capability set.
type ExecutionContext struct {
	GoContext context.Context
	Logger    *logger.Logger
	Runner    connector.Runner
	Host      *capability.Host
}

// WithGoContext returns a shallow copy bound to ctx. The reconciler uses
// this to impose per-phase timeouts without mutating the shared context.
func (c *ExecutionContext) WithGoContext(ctx context.Context) *ExecutionContext {
	clone := *c
	clone.GoContext = ctx
	return &clone
}

// Action is one idempotent unit of host change.
//
// Check must not mutate state and is re-evaluated fresh on every run. Apply
// must be safe to call even when Check misreported Unsatisfied: every apply
// tolerates the already-done case.
type Action interface {
	Meta() *Meta
	Check(ctx *ExecutionContext) (CheckResult, error)
	Apply(ctx *ExecutionContext) error
}
