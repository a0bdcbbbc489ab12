package cmd

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/mensylisir/nodestate/pkg/logger"
	"github.com/mensylisir/nodestate/pkg/report"
)

var (
	verboseFlag bool
	logFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "nodestate",
	Short: "nodestate reconciles a host into or out of a Kubernetes cluster",
	Long: `nodestate is a single-host reconciler: it drives the local machine to a
target state ("join" or "reset") by executing a dependency-ordered sequence
of idempotent actions, probing before each one and reporting every outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		opts := logger.DefaultOptions()
		if verboseFlag {
			opts.ConsoleLevel = logger.DebugLevel
		}
		if logFileFlag != "" {
			opts.FileOutput = true
			opts.LogFilePath = logFileFlag
		}
		logger.Init(opts)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Also write JSON logs to this file")
}

func banner() {
	fmt.Println(figure.NewFigure("nodestate", "", true).String())
}

// Execute runs the CLI and returns the process exit code. Flag and argument
// errors map to the invalid-invocation code; run results carry their own
// codes through the commands.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := err.(exitCodeError); ok {
			return int(code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return report.ExitInvalidInvocation
	}
	return report.ExitAllSucceeded
}

// exitCodeError carries a specific exit code out of a RunE without cobra
// printing it as a usage error.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}
