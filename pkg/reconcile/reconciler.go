// Package reconcile executes a plan sequentially, probing each action before
// applying it and recording an immutable outcome per action. The reconciler
// moves through Idle → Planning → Executing → Finalizing → Done; a planning
// failure aborts before any host mutation.
package reconcile

import (
	"context"
	"time"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/logger"
	"github.com/mensylisir/nodestate/pkg/plan"
)

// Phase is the reconciler's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlanning
	PhaseExecuting
	PhaseFinalizing
	PhaseDone
)

// Policy decides what a fatal apply failure does to the rest of the run.
type Policy int

const (
	// PolicyContinue logs the failure and proceeds with the rest of the plan.
	PolicyContinue Policy = iota
	// PolicyHalt aborts the remaining plan on the first fatal failure.
	PolicyHalt
)

const (
	// DefaultCheckTimeout bounds a single probe.
	DefaultCheckTimeout = 5 * time.Second
	// DefaultApplyTimeout bounds a single apply. kubeadm operations dominate
	// the budget.
	DefaultApplyTimeout = 2 * time.Minute
)

// Options tunes one reconciliation run.
type Options struct {
	Policy       Policy
	CheckTimeout time.Duration
	ApplyTimeout time.Duration
	// DryRun computes and reports the plan without probing or applying.
	DryRun bool
	// Observer, when set, is invoked after each outcome is recorded. Used
	// by the CLI for progress display.
	Observer func(done, total int, o Outcome)
}

func (o Options) withDefaults() Options {
	if o.CheckTimeout <= 0 {
		o.CheckTimeout = DefaultCheckTimeout
	}
	if o.ApplyTimeout <= 0 {
		o.ApplyTimeout = DefaultApplyTimeout
	}
	return o
}

// Reconciler drives one node toward a target state. Not safe for concurrent
// use; runs are strictly sequential.
type Reconciler struct {
	registry *plan.Registry
	execCtx  *action.ExecutionContext
	opts     Options
	phase    Phase
}

// New builds a reconciler over a read-only registry.
func New(registry *plan.Registry, execCtx *action.ExecutionContext, opts Options) *Reconciler {
	return &Reconciler{
		registry: registry,
		execCtx:  execCtx,
		opts:     opts.withDefaults(),
		phase:    PhaseIdle,
	}
}

// Phase returns the current lifecycle phase.
func (r *Reconciler) Phase() Phase {
	return r.phase
}

// Run reconciles the host toward target and returns the complete report.
// Every run produces a report, including aborted ones: outcomes cover all
// actions attempted up to the abort point.
func (r *Reconciler) Run(target action.Target) *RunReport {
	log := r.execCtx.Logger.With("target", string(target))
	report := &RunReport{Target: target, StartTime: time.Now()}

	r.phase = PhasePlanning
	p, err := r.registry.BuildPlan(target)
	if err != nil {
		log.Errorf("planning failed: %v", err)
		report.PlanningErr = err
		return r.finalize(report, true)
	}
	log.Infof("plan built: %d actions", p.Len())

	if r.opts.DryRun {
		for i, a := range p.Actions {
			report.append(Outcome{Action: a.Meta().Name, Result: ResultPlanned})
			r.observe(report, i+1, p.Len())
		}
		log.Infof("dry run: no probes or applies executed")
		return r.finalize(report, false)
	}

	r.phase = PhaseExecuting
	halted := false
	for i, a := range p.Actions {
		// Cancellation is honored only between actions; a running apply is
		// treated as non-preemptible.
		if err := r.execCtx.GoContext.Err(); err != nil {
			log.Warnf("run cancelled before action %q, aborting", a.Meta().Name)
			halted = true
			break
		}

		outcome := r.runAction(a)
		report.append(outcome)
		r.observe(report, i+1, p.Len())

		if outcome.Result == ResultFailed && r.opts.Policy == PolicyHalt {
			log.Errorf("action %q failed fatally, halting remaining plan", a.Meta().Name)
			halted = true
			break
		}
	}

	return r.finalize(report, halted)
}

func (r *Reconciler) observe(report *RunReport, done, total int) {
	if r.opts.Observer != nil {
		r.opts.Observer(done, total, report.Outcomes[len(report.Outcomes)-1])
	}
}

func (r *Reconciler) runAction(a action.Action) Outcome {
	meta := a.Meta()
	log := r.execCtx.Logger.With("action", meta.Name)
	start := time.Now()

	check := r.runCheck(a, log)
	if check == action.Satisfied {
		log.Successf("already satisfied, skipping")
		return Outcome{
			Action:   meta.Name,
			Check:    check,
			Executed: false,
			Result:   ResultSkipped,
			Reason:   "already satisfied",
			Duration: time.Since(start),
		}
	}

	log.Infof("applying: %s", meta.Description)
	err := r.runApply(a)
	duration := time.Since(start)
	if err == nil {
		log.Successf("applied in %s", duration.Round(time.Millisecond))
		return Outcome{
			Action:   meta.Name,
			Check:    check,
			Executed: true,
			Result:   ResultSuccess,
			Duration: duration,
		}
	}

	applyErr := action.Classify(meta.Name, err)
	if action.NonFatal(applyErr) {
		log.Warnf("best-effort apply tolerated: %v", applyErr)
		return Outcome{
			Action:   meta.Name,
			Check:    check,
			Executed: true,
			Result:   ResultSkipped,
			Reason:   string(applyErr.Kind),
			Err:      applyErr,
			Duration: duration,
		}
	}

	log.Errorf("apply failed: %v", applyErr)
	return Outcome{
		Action:   meta.Name,
		Check:    check,
		Executed: true,
		Result:   ResultFailed,
		Reason:   string(applyErr.Kind),
		Err:      applyErr,
		Duration: duration,
	}
}

// runCheck probes under a bounded timeout. Probe errors and timeouts are
// downgraded to Unknown with a warning; Unknown is treated as Unsatisfied
// by the caller, so a broken probe leads to an (idempotent) apply, never to
// a silently skipped action.
func (r *Reconciler) runCheck(a action.Action, log *logger.Logger) action.CheckResult {
	timeout := r.opts.CheckTimeout
	if a.Meta().CheckTimeout > 0 {
		timeout = a.Meta().CheckTimeout
	}
	ctx, cancel := context.WithTimeout(r.execCtx.GoContext, timeout)
	defer cancel()

	type checkReturn struct {
		result action.CheckResult
		err    error
	}
	ch := make(chan checkReturn, 1)
	go func() {
		result, err := a.Check(r.execCtx.WithGoContext(ctx))
		ch <- checkReturn{result, err}
	}()

	select {
	case ret := <-ch:
		if ret.err != nil {
			log.Warnf("probe failed, treating as unsatisfied: %v", ret.err)
			return action.Unknown
		}
		return ret.result
	case <-ctx.Done():
		log.Warnf("probe timed out after %s, treating as unsatisfied", timeout)
		return action.Unknown
	}
}

func (r *Reconciler) runApply(a action.Action) error {
	timeout := r.opts.ApplyTimeout
	if a.Meta().ApplyTimeout > 0 {
		timeout = a.Meta().ApplyTimeout
	}
	ctx, cancel := context.WithTimeout(r.execCtx.GoContext, timeout)
	defer cancel()

	ch := make(chan error, 1)
	go func() {
		ch <- a.Apply(r.execCtx.WithGoContext(ctx))
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return action.NewApplyError(action.Timeout, a.Meta().Name, ctx.Err())
	}
}

// finalize stamps the overall status. No mutation happens past this point.
func (r *Reconciler) finalize(report *RunReport, halted bool) *RunReport {
	r.phase = PhaseFinalizing
	report.EndTime = time.Now()

	switch {
	case halted:
		report.Status = AbortedEarly
	default:
		report.Status = AllSucceeded
		for _, o := range report.Outcomes {
			if o.Result == ResultFailed {
				report.Status = CompletedWithFailures
				break
			}
		}
	}

	r.phase = PhaseDone
	return report
}
