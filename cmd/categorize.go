package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/internal/pipeline"
)

var (
	categorizeIn        string
	categorizeOut       string
	categorizeOverrides stageOverrides
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Assign each screened paper to a task category",
	Long:  "Sends included papers to the model in batches for a 16-way category assignment; papers fitting no category get the overflow label with a recommended name. Resumable like screen.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runStage(ctx,
			pipeline.CategorizeStage(),
			applyOverrides(cfg.Categorize, categorizeOverrides),
			categorizeIn,
			map[string]string{
				model.BucketCategorized: categorizeOut,
			},
			categorizeOverrides.reset,
		)
	},
}

func init() {
	categorizeCmd.Flags().StringVar(&categorizeIn, "in", "stage-2-output.json", "input papers JSON")
	categorizeCmd.Flags().StringVar(&categorizeOut, "out", "stage-3-output.json", "output JSON with categories")
	categorizeCmd.Flags().IntVar(&categorizeOverrides.batchSize, "batch-size", 0, "papers per model call (overrides config)")
	categorizeCmd.Flags().Float64Var(&categorizeOverrides.sleepSecs, "sleep", 0, "seconds to pause between batches (overrides config)")
	categorizeCmd.Flags().IntVar(&categorizeOverrides.retries, "retries", 0, "retries per batch beyond the first attempt (overrides config)")
	categorizeCmd.Flags().StringVar(&categorizeOverrides.model, "model", "", "model ID (overrides config)")
	categorizeCmd.Flags().BoolVar(&categorizeOverrides.reset, "reset", false, "discard any existing checkpoint and start over")
	rootCmd.AddCommand(categorizeCmd)
}
