package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlit/screener-cli/internal/config"
)

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["keywords"])
	assert.True(t, names["screen"])
	assert.True(t, names["categorize"])
	assert.True(t, names["stats"])
}

func TestStageFlagsRegistered(t *testing.T) {
	for _, name := range []string{"batch-size", "sleep", "retries", "model", "reset"} {
		assert.NotNil(t, screenCmd.Flags().Lookup(name), "screen --%s", name)
		assert.NotNil(t, categorizeCmd.Flags().Lookup(name), "categorize --%s", name)
	}
	assert.NotNil(t, screenCmd.Flags().Lookup("included"))
	assert.NotNil(t, screenCmd.Flags().Lookup("excluded"))
	assert.NotNil(t, categorizeCmd.Flags().Lookup("out"))
	assert.NotNil(t, statsCmd.Flags().Lookup("titles"))
	assert.NotNil(t, keywordsCmd.Flags().Lookup("coding"))
}

func TestApplyOverrides(t *testing.T) {
	base := config.StageConfig{
		Model:       "claude-haiku-4-5-20251001",
		BatchSize:   10,
		SleepSecs:   1.0,
		MaxRetries:  3,
		BackoffSecs: 2.0,
	}

	// Zero values keep the configured settings.
	same := applyOverrides(base, stageOverrides{})
	assert.Equal(t, base, same)

	changed := applyOverrides(base, stageOverrides{
		batchSize: 4,
		sleepSecs: 0.5,
		retries:   1,
		model:     "claude-sonnet-4-5-20250929",
	})
	assert.Equal(t, 4, changed.BatchSize)
	assert.InDelta(t, 0.5, changed.SleepSecs, 0.001)
	assert.Equal(t, 1, changed.MaxRetries)
	assert.Equal(t, "claude-sonnet-4-5-20250929", changed.Model)
	// Backoff has no flag and stays configured.
	assert.InDelta(t, 2.0, changed.BackoffSecs, 0.001)
}

func TestDefaultArtifactPaths(t *testing.T) {
	require.NotNil(t, keywordsCmd.Flags().Lookup("coding"))
	assert.Equal(t, "stage-1-output.json", keywordsCmd.Flags().Lookup("coding").DefValue)
	assert.Equal(t, "stage-1-output.json", screenCmd.Flags().Lookup("in").DefValue)
	assert.Equal(t, "stage-2-output.json", screenCmd.Flags().Lookup("included").DefValue)
	assert.Equal(t, "stage-2-output.json", categorizeCmd.Flags().Lookup("in").DefValue)
	assert.Equal(t, "stage-3-output.json", categorizeCmd.Flags().Lookup("out").DefValue)
	assert.Equal(t, "stage-3-output.json", statsCmd.Flags().Lookup("in").DefValue)
}
