package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	progressbar "github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions"
	"github.com/mensylisir/nodestate/pkg/capability"
	"github.com/mensylisir/nodestate/pkg/config"
	"github.com/mensylisir/nodestate/pkg/connector"
	"github.com/mensylisir/nodestate/pkg/logger"
	"github.com/mensylisir/nodestate/pkg/reconcile"
	"github.com/mensylisir/nodestate/pkg/report"
)

type applyOptions struct {
	ConfigPath    string
	HaltOnFailure bool
	CheckTimeout  time.Duration
	ApplyTimeout  time.Duration
	DryRun        bool
	ReportPath    string
	NoBanner      bool
}

var applyOpts = &applyOptions{}

var applyCmd = &cobra.Command{
	Use:   "apply (join|reset)",
	Short: "Reconcile the local host to the given target state",
	Long: `Builds the dependency-ordered plan for the target state, probes each
action, applies the unsatisfied ones, and prints a per-action report.

Exit codes: 0 all succeeded, 1 completed with failures, 2 aborted early,
3 invalid invocation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok := action.ParseTarget(args[0])
		if !ok {
			return errInvalidTarget(args[0])
		}
		return runReconcile(target, applyOpts)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVarP(&applyOpts.ConfigPath, "config", "c", "", "Path to the nodestate YAML config")
	applyCmd.Flags().BoolVar(&applyOpts.HaltOnFailure, "halt-on-failure", false, "Abort the remaining plan on the first fatal failure")
	applyCmd.Flags().DurationVar(&applyOpts.CheckTimeout, "check-timeout", 0, "Per-action probe timeout (default 5s)")
	applyCmd.Flags().DurationVar(&applyOpts.ApplyTimeout, "apply-timeout", 0, "Per-action apply timeout (default 2m)")
	applyCmd.Flags().BoolVar(&applyOpts.DryRun, "dry-run", false, "Print the plan without probing or applying")
	applyCmd.Flags().StringVar(&applyOpts.ReportPath, "report", "", "Write the JSON report to this file")
	applyCmd.Flags().BoolVar(&applyOpts.NoBanner, "no-banner", false, "Suppress the startup banner")
}

func errInvalidTarget(got string) error {
	logger.Errorf("invalid target %q: must be \"join\" or \"reset\"", got)
	return exitCodeError(report.ExitInvalidInvocation)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runReconcile(target action.Target, opts *applyOptions) error {
	if !opts.NoBanner {
		banner()
	}
	log := logger.Get()

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		log.Errorf("config: %v", err)
		return exitCodeError(report.ExitInvalidInvocation)
	}

	registry, err := actions.BuildRegistry(cfg)
	if err != nil {
		log.Errorf("registry: %v", err)
		return exitCodeError(report.ExitAbortedEarly)
	}

	// SIGINT/SIGTERM cancel the run; cancellation is honored between
	// actions, never mid-action.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := connector.NewLocalRunner()
	execCtx := &action.ExecutionContext{
		GoContext: ctx,
		Logger:    log,
		Runner:    runner,
		Host:      capability.NewHost(runner, log),
	}

	policy := reconcile.PolicyContinue
	if opts.HaltOnFailure || cfg.HaltOnFailure() {
		policy = reconcile.PolicyHalt
	}
	checkTimeout := cfg.Engine.CheckTimeout.StdDuration()
	if opts.CheckTimeout > 0 {
		checkTimeout = opts.CheckTimeout
	}
	applyTimeout := cfg.Engine.ApplyTimeout.StdDuration()
	if opts.ApplyTimeout > 0 {
		applyTimeout = opts.ApplyTimeout
	}

	ropts := reconcile.Options{
		Policy:       policy,
		CheckTimeout: checkTimeout,
		ApplyTimeout: applyTimeout,
		DryRun:       opts.DryRun,
	}
	if isatty.IsTerminal(os.Stderr.Fd()) && !verboseFlag && !opts.DryRun {
		var bar *progressbar.ProgressBar
		ropts.Observer = func(done, total int, o reconcile.Outcome) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("reconciling"),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}
	}

	r := reconcile.New(registry, execCtx, ropts)
	runReport := r.Run(target)

	report.WriteSummary(os.Stdout, runReport)
	if opts.ReportPath != "" {
		f, err := os.Create(opts.ReportPath)
		if err != nil {
			log.Errorf("write report: %v", err)
		} else {
			defer f.Close()
			if err := report.WriteJSON(f, runReport); err != nil {
				log.Errorf("write report: %v", err)
			}
		}
	}

	if code := report.ExitCode(runReport.Status); code != report.ExitAllSucceeded {
		return exitCodeError(code)
	}
	return nil
}
