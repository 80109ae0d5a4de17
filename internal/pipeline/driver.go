package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/paperlit/screener-cli/internal/batch"
	"github.com/paperlit/screener-cli/internal/checkpoint"
	"github.com/paperlit/screener-cli/internal/model"
)

// Driver orchestrates one classification stage over an ordered paper
// list: plan batches, resume from the checkpoint, invoke the model one
// batch at a time, reconcile, persist after every batch, and finalize
// once all batches are done. Batches are strictly sequential; the
// checkpoint is a single monotonically increasing counter that assumes
// linear progress.
type Driver struct {
	Stage   Stage
	Invoker Invoker
	Store   checkpoint.Store

	// BatchSize papers per completion call. Must be positive.
	BatchSize int

	// Delay is an optional courtesy pause between batches, a
	// rate-limiting nicety with no correctness role.
	Delay time.Duration

	// Destinations maps bucket names to final artifact paths.
	Destinations map[string]string
}

// Result summarizes a completed run.
type Result struct {
	Buckets      checkpoint.Buckets
	TotalBatches int
	// SkippedBatches is how many batches were restored from the
	// checkpoint rather than sent to the completion service.
	SkippedBatches int
	Warnings       int
}

// Run executes the stage to completion or to the first fatal failure.
// On failure the last persisted checkpoint is left untouched and the
// error names the batch that stopped the run; re-running resumes there.
func (d *Driver) Run(ctx context.Context, papers []model.Paper) (*Result, error) {
	log := zap.L().With(zap.String("stage", d.Stage.Name))

	batches, err := batch.Plan(papers, d.BatchSize)
	if err != nil {
		return nil, err
	}

	buckets := make(checkpoint.Buckets, len(d.Stage.Buckets))
	for _, name := range d.Stage.Buckets {
		buckets[name] = []model.Outcome{}
	}

	state := &checkpoint.State{
		Stage:        d.Stage.Name,
		TotalBatches: len(batches),
	}

	found, prior, priorBuckets, err := d.Store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "driver: load checkpoint")
	}
	start := 0
	if found {
		if prior.TotalBatches == len(batches) && prior.ProcessedBatches <= len(batches) {
			start = prior.ProcessedBatches
			state = prior
			for name, outcomes := range priorBuckets {
				buckets[name] = outcomes
			}
			log.Info("resuming from checkpoint",
				zap.Int("processed_batches", start),
				zap.Int("total_batches", len(batches)),
			)
		} else {
			// The input changed shape since the checkpoint was written;
			// a counter against a different batch plan cannot be trusted.
			log.Warn("checkpoint does not match current batch plan, starting fresh",
				zap.Int("checkpoint_total", prior.TotalBatches),
				zap.Int("current_total", len(batches)),
			)
			if err := d.Store.Reset(ctx); err != nil {
				return nil, eris.Wrap(err, "driver: reset stale checkpoint")
			}
		}
	}

	log.Info("starting run",
		zap.Int("papers", len(papers)),
		zap.Int("batch_size", d.BatchSize),
		zap.Int("total_batches", len(batches)),
		zap.Int("resume_at", start),
	)

	totalWarnings := 0
	for i := start; i < len(batches); i++ {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "driver: interrupted before batch %d/%d", i+1, len(batches))
		}

		log.Info("processing batch",
			zap.Int("batch", i+1),
			zap.Int("total", len(batches)),
			zap.Int("items", len(batches[i])),
		)

		records, err := d.Invoker.ClassifyBatch(ctx, batches[i])
		if err != nil {
			// The checkpoint still reflects the last completed batch;
			// this batch gets no partial credit and is retried in full
			// on the next run.
			return nil, eris.Wrapf(err, "driver: batch %d/%d failed", i+1, len(batches))
		}

		batchBuckets, warnings := Reconcile(d.Stage, batches[i], records)
		for _, w := range warnings {
			log.Warn("reconciliation repair",
				zap.String("kind", w.Kind),
				zap.Int("batch", i+1),
				zap.Int("record_pos", w.RecordPos),
				zap.Any("declared_index", w.DeclaredIndex),
				zap.Int("assigned_index", w.AssignedIndex),
			)
		}
		totalWarnings += len(warnings)

		for _, name := range d.Stage.Buckets {
			buckets[name] = append(buckets[name], batchBuckets[name]...)
		}

		state.ProcessedBatches = i + 1
		state.Timestamp = time.Now().UTC()
		state.BucketCounts = buckets.Counts()
		if err := d.Store.Save(ctx, state, buckets); err != nil {
			return nil, eris.Wrapf(err, "driver: save checkpoint after batch %d", i+1)
		}

		log.Info("checkpoint saved",
			zap.Int("processed_batches", state.ProcessedBatches),
			zap.Int("total_batches", state.TotalBatches),
		)

		if d.Delay > 0 && i < len(batches)-1 {
			timer := time.NewTimer(d.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrapf(ctx.Err(), "driver: interrupted after batch %d/%d", i+1, len(batches))
			case <-timer.C:
			}
		}
	}

	if err := d.Store.Finalize(ctx, buckets, d.Destinations); err != nil {
		return nil, eris.Wrap(err, "driver: finalize")
	}

	log.Info("run complete",
		zap.Int("total_batches", len(batches)),
		zap.Any("bucket_counts", buckets.Counts()),
	)

	return &Result{
		Buckets:        buckets,
		TotalBatches:   len(batches),
		SkippedBatches: start,
		Warnings:       totalWarnings,
	}, nil
}
