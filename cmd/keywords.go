package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paperlit/screener-cli/internal/keywords"
	"github.com/paperlit/screener-cli/internal/model"
)

var (
	keywordsIn      string
	keywordsCoding  string
	keywordsAIOther string
	keywordsNonAI   string
	keywordsWorkers int
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Split the corpus lexically before any model call",
	Long:  "Scans title and abstract for AI and coding terms and writes three files: coding-related AI papers (the screen input), other AI papers, and non-AI papers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("keywords"); err != nil {
			return err
		}

		papers, err := model.LoadPapers(keywordsIn)
		if err != nil {
			return err
		}

		workers := keywordsWorkers
		if workers == 0 {
			workers = cfg.Keywords.Workers
		}

		out, err := keywords.Classify(ctx, papers, workers)
		if err != nil {
			return err
		}

		if err := model.SavePapers(keywordsCoding, out.Coding); err != nil {
			return err
		}
		if err := model.SavePapers(keywordsAIOther, out.AIOther); err != nil {
			return err
		}
		if err := model.SavePapers(keywordsNonAI, out.NonAI); err != nil {
			return err
		}

		zap.L().Info("keyword split complete",
			zap.Int("papers", len(papers)),
			zap.Int("coding", len(out.Coding)),
			zap.Int("ai_other", len(out.AIOther)),
			zap.Int("non_ai", len(out.NonAI)),
		)

		return nil
	},
}

func init() {
	keywordsCmd.Flags().StringVar(&keywordsIn, "in", "all_papers.json", "input papers JSON (merged list)")
	keywordsCmd.Flags().StringVar(&keywordsCoding, "coding", "stage-1-output.json", "output JSON for coding-related AI papers")
	keywordsCmd.Flags().StringVar(&keywordsAIOther, "ai-other", "ai-noncoding.json", "output JSON for AI papers without a coding signal")
	keywordsCmd.Flags().StringVar(&keywordsNonAI, "non-ai", "non-ai.json", "output JSON for non-AI papers")
	keywordsCmd.Flags().IntVar(&keywordsWorkers, "workers", 0, "scan concurrency (0 = config, config 0 = GOMAXPROCS)")
	rootCmd.AddCommand(keywordsCmd)
}
