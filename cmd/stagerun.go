package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/paperlit/screener-cli/internal/checkpoint"
	"github.com/paperlit/screener-cli/internal/config"
	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/internal/pipeline"
	"github.com/paperlit/screener-cli/internal/resilience"
	"github.com/paperlit/screener-cli/pkg/anthropic"
)

// stageOverrides are the per-invocation flag values layered over the
// stage's config section. Zero values mean "keep the configured value".
type stageOverrides struct {
	batchSize int
	sleepSecs float64
	retries   int
	model     string
	reset     bool
}

func applyOverrides(scfg config.StageConfig, o stageOverrides) config.StageConfig {
	if o.batchSize > 0 {
		scfg.BatchSize = o.batchSize
	}
	if o.sleepSecs > 0 {
		scfg.SleepSecs = o.sleepSecs
	}
	if o.retries > 0 {
		scfg.MaxRetries = o.retries
	}
	if o.model != "" {
		scfg.Model = o.model
	}
	return scfg
}

// newStore builds the configured checkpoint backend for one stage. The
// returned closer is a no-op for the file driver.
func newStore(stage string) (checkpoint.Store, func(), error) {
	switch cfg.Checkpoint.Driver {
	case "sqlite":
		s, err := checkpoint.NewSQLite(filepath.Clean(cfg.Checkpoint.DSN), stage)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return checkpoint.NewFileStore(cfg.Checkpoint.Dir, stage), func() {}, nil
	}
}

// runStage drives one model-backed stage end to end: validate, load
// input, classify in resumable batches, and write the final artifacts.
func runStage(ctx context.Context, stage pipeline.Stage, scfg config.StageConfig, inPath string, destinations map[string]string, reset bool) error {
	if err := cfg.Validate(stage.Name); err != nil {
		return err
	}

	papers, err := model.LoadPapers(inPath)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(stage.Name)
	if err != nil {
		return err
	}
	defer closeStore()

	if reset {
		if err := store.Reset(ctx); err != nil {
			return eris.Wrapf(err, "%s: reset checkpoint", stage.Name)
		}
		zap.L().Info("checkpoint reset", zap.String("stage", stage.Name))
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxRetries = scfg.MaxRetries
	if scfg.BackoffSecs > 0 {
		retry.BaseDelay = time.Duration(scfg.BackoffSecs * float64(time.Second))
	}

	invoker := pipeline.NewLLMInvoker(
		anthropic.NewClient(cfg.Anthropic.Key),
		stage,
		scfg.Model,
		scfg.AbstractMaxChars,
		retry,
	)

	driver := &pipeline.Driver{
		Stage:        stage,
		Invoker:      invoker,
		Store:        store,
		BatchSize:    scfg.BatchSize,
		Delay:        time.Duration(scfg.SleepSecs * float64(time.Second)),
		Destinations: destinations,
	}

	res, err := driver.Run(ctx, papers)
	if err != nil {
		return err
	}

	invoker.Usage().LogCost(scfg.Model, stage.Name)
	zap.L().Info("stage finished",
		zap.String("stage", stage.Name),
		zap.Int("papers", len(papers)),
		zap.Int("batches", res.TotalBatches),
		zap.Int("skipped_batches", res.SkippedBatches),
		zap.Int("warnings", res.Warnings),
		zap.Any("bucket_counts", res.Buckets.Counts()),
	)

	return nil
}
