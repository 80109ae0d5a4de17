package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/internal/pipeline"
)

var (
	screenIn        string
	screenIncluded  string
	screenExcluded  string
	screenOverrides stageOverrides
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen papers for LLM-for-coding relevance",
	Long:  "Sends papers to the model in batches for a binary include/exclude decision. Progress is checkpointed after every batch; rerunning resumes at the first unprocessed batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runStage(ctx,
			pipeline.ScreenStage(),
			applyOverrides(cfg.Screen, screenOverrides),
			screenIn,
			map[string]string{
				model.BucketIncluded: screenIncluded,
				model.BucketExcluded: screenExcluded,
			},
			screenOverrides.reset,
		)
	},
}

func init() {
	screenCmd.Flags().StringVar(&screenIn, "in", "stage-1-output.json", "input papers JSON")
	screenCmd.Flags().StringVar(&screenIncluded, "included", "stage-2-output.json", "output JSON for included papers")
	screenCmd.Flags().StringVar(&screenExcluded, "excluded", "stage-2-rejected.json", "output JSON for excluded papers")
	screenCmd.Flags().IntVar(&screenOverrides.batchSize, "batch-size", 0, "papers per model call (overrides config)")
	screenCmd.Flags().Float64Var(&screenOverrides.sleepSecs, "sleep", 0, "seconds to pause between batches (overrides config)")
	screenCmd.Flags().IntVar(&screenOverrides.retries, "retries", 0, "retries per batch beyond the first attempt (overrides config)")
	screenCmd.Flags().StringVar(&screenOverrides.model, "model", "", "model ID (overrides config)")
	screenCmd.Flags().BoolVar(&screenOverrides.reset, "reset", false, "discard any existing checkpoint and start over")
	rootCmd.AddCommand(screenCmd)
}
