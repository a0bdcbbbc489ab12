package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/actions"
	"github.com/mensylisir/nodestate/pkg/logger"
	"github.com/mensylisir/nodestate/pkg/report"
)

var planConfigPath string

var planCmd = &cobra.Command{
	Use:   "plan (join|reset)",
	Short: "Print the ordered action plan for a target without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok := action.ParseTarget(args[0])
		if !ok {
			return errInvalidTarget(args[0])
		}

		cfg, err := loadConfig(planConfigPath)
		if err != nil {
			logger.Errorf("config: %v", err)
			return exitCodeError(report.ExitInvalidInvocation)
		}
		registry, err := actions.BuildRegistry(cfg)
		if err != nil {
			logger.Errorf("registry: %v", err)
			return exitCodeError(report.ExitAbortedEarly)
		}
		p, err := registry.BuildPlan(target)
		if err != nil {
			logger.Errorf("plan: %v", err)
			return exitCodeError(report.ExitAbortedEarly)
		}
		fmt.Print(p.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "", "Path to the nodestate YAML config")
}
