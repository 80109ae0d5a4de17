package main

import (
	"github.com/spf13/cobra"

	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/internal/stats"
)

var (
	statsIn     string
	statsTitles bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the final category distribution",
	Long:  "Reads the categorized output and prints per-category counts in registry order, overflow label tallies, the top categories, and optionally per-category paper listings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		outcomes, err := model.LoadOutcomes(statsIn)
		if err != nil {
			return err
		}

		stats.Render(cmd.OutOrStdout(), stats.Summarize(outcomes), statsTitles)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsIn, "in", "stage-3-output.json", "categorized papers JSON")
	statsCmd.Flags().BoolVar(&statsTitles, "titles", false, "list every paper under its category")
	rootCmd.AddCommand(statsCmd)
}
