package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"factorizer/internal/dataio"
	"factorizer/internal/factor"
	"factorizer/internal/registry"
	"factorizer/internal/series"
	"factorizer/internal/workflow"
)

var runFlags struct {
	workflowPath string
	begin        string
	end          string
	concurrency  int
	watch        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs a workflow",
	Long:  "Loads bars, applies the workflow's indicators and crosses, and writes the assembled factor table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		begin, err := parseBound(runFlags.begin)
		if err != nil {
			return fmt.Errorf("--begin: %w", err)
		}
		end, err := parseBound(runFlags.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		if runFlags.concurrency < 1 {
			return fmt.Errorf("--concurrency must be >= 1")
		}

		reg := registry.New()
		factor.Register(reg)
		dataio.Register(reg)

		execute := func() error {
			cfg, err := workflow.LoadConfig(runFlags.workflowPath)
			if err != nil {
				return err
			}
			plan, err := workflow.BuildPlan(cfg, reg, begin, end)
			if err != nil {
				return err
			}
			return workflow.NewRunner(reg, plan, runFlags.concurrency).Run(cmd.Context())
		}

		if runFlags.watch {
			if err := execute(); err != nil {
				return err
			}
			return workflow.Watch(cmd.Context(), runFlags.workflowPath, execute)
		}
		return execute()
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.workflowPath, "workflow", "", "workflow configuration file (yaml or toml)")
	runCmd.Flags().StringVar(&runFlags.begin, "begin", "", "begin time, inclusive")
	runCmd.Flags().StringVar(&runFlags.end, "end", "", "end time, exclusive")
	runCmd.Flags().IntVar(&runFlags.concurrency, "concurrency", 1, "number of partitions processed in parallel")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "re-run whenever the workflow file changes")
	_ = runCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(runCmd)
}

func parseBound(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := series.ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
