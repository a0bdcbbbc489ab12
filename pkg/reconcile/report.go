package reconcile

import (
	"time"

	"github.com/mensylisir/nodestate/pkg/action"
)

// Result is the terminal disposition of one action within a run.
type Result string

const (
	// ResultPlanned is recorded only in dry runs: the action would execute.
	ResultPlanned Result = "planned"
	// ResultSuccess means apply ran and returned cleanly.
	ResultSuccess Result = "success"
	// ResultSkipped covers both "already satisfied" and tolerated
	// best-effort failures (missing tool, busy resource).
	ResultSkipped Result = "skipped"
	// ResultFailed means apply failed fatally for this action.
	ResultFailed Result = "failed"
)

// Status is the overall disposition of a run.
type Status string

const (
	// AllSucceeded: every outcome is success, skipped, or planned.
	AllSucceeded Status = "all-succeeded"
	// CompletedWithFailures: the full plan ran but at least one action
	// failed fatally under the continue policy.
	CompletedWithFailures Status = "completed-with-failures"
	// AbortedEarly: planning failed, the halt policy stopped the run, or a
	// cancellation was honored between actions.
	AbortedEarly Status = "aborted-early"
)

// Outcome is the immutable per-action record of one run. Outcomes are
// appended in plan order and never mutated after the fact.
type Outcome struct {
	Action   string             `json:"action"`
	Check    action.CheckResult `json:"-"`
	CheckStr string             `json:"probe"`
	Executed bool               `json:"executed"`
	Result   Result             `json:"result"`
	Reason   string             `json:"reason,omitempty"`
	Duration time.Duration      `json:"-"`
	Err      error              `json:"-"`
}

// RunReport collects the outcomes of one reconciliation pass. It is owned
// by the single reconciling goroutine while the run is live and read-only
// once Finalize has stamped the status.
type RunReport struct {
	Target      action.Target `json:"target"`
	Outcomes    []Outcome     `json:"outcomes"`
	Status      Status        `json:"status"`
	PlanningErr error         `json:"-"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
}

func (r *RunReport) append(o Outcome) {
	o.CheckStr = o.Check.String()
	r.Outcomes = append(r.Outcomes, o)
}

// Counts returns how many outcomes landed in each result bucket.
func (r *RunReport) Counts() (success, skipped, failed, planned int) {
	for _, o := range r.Outcomes {
		switch o.Result {
		case ResultSuccess:
			success++
		case ResultSkipped:
			skipped++
		case ResultFailed:
			failed++
		case ResultPlanned:
			planned++
		}
	}
	return
}
