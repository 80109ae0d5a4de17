package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/paperlit/screener-cli/internal/model"
)

// SQLiteStore keeps checkpoints in a SQLite database, for operators who
// prefer one durable file over a directory of JSON artifacts. Final
// outputs are still written as JSON files on Finalize.
type SQLiteStore struct {
	db    *sql.DB
	stage string
}

// NewSQLite opens (or creates) a SQLite checkpoint database at dsn,
// configures WAL mode, and applies the schema.
func NewSQLite(dsn, stage string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "checkpoint: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "checkpoint: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db, stage: stage}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	stage             TEXT PRIMARY KEY,
	total_batches     INTEGER NOT NULL,
	processed_batches INTEGER NOT NULL,
	bucket_counts     TEXT NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_snapshots (
	id       TEXT PRIMARY KEY,
	stage    TEXT NOT NULL,
	bucket   TEXT NOT NULL,
	outcomes TEXT NOT NULL,
	UNIQUE(stage, bucket)
);

CREATE INDEX IF NOT EXISTS idx_bucket_snapshots_stage ON bucket_snapshots(stage);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "checkpoint: migrate")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (bool, *State, Buckets, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT total_batches, processed_batches, bucket_counts, updated_at
		 FROM checkpoints WHERE stage = ?`, s.stage)

	var state State
	var countsJSON string
	state.Stage = s.stage
	err := row.Scan(&state.TotalBatches, &state.ProcessedBatches, &countsJSON, &state.Timestamp)
	if err == sql.ErrNoRows {
		return false, nil, nil, nil
	}
	if err != nil {
		return false, nil, nil, eris.Wrap(err, "checkpoint: scan progress")
	}
	if err := json.Unmarshal([]byte(countsJSON), &state.BucketCounts); err != nil {
		// Unreadable descriptor means a fresh start, not a fatal error.
		return false, nil, nil, nil
	}

	buckets := make(Buckets, len(state.BucketCounts))
	for name := range state.BucketCounts {
		var outcomesJSON string
		row := s.db.QueryRowContext(ctx,
			`SELECT outcomes FROM bucket_snapshots WHERE stage = ? AND bucket = ?`,
			s.stage, name)
		if err := row.Scan(&outcomesJSON); err != nil {
			return false, nil, nil, nil
		}

		var outcomes []model.Outcome
		if err := json.Unmarshal([]byte(outcomesJSON), &outcomes); err != nil {
			return false, nil, nil, nil
		}
		buckets[name] = outcomes
	}

	if !consistent(&state, buckets) {
		return false, nil, nil, nil
	}

	return true, &state, buckets, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *State, buckets Buckets) error {
	countsJSON, err := json.Marshal(state.BucketCounts)
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal counts")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "checkpoint: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints (stage, total_batches, processed_batches, bucket_counts, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(stage) DO UPDATE SET
			total_batches = excluded.total_batches,
			processed_batches = excluded.processed_batches,
			bucket_counts = excluded.bucket_counts,
			updated_at = excluded.updated_at`,
		s.stage, state.TotalBatches, state.ProcessedBatches, string(countsJSON), time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "checkpoint: upsert progress")
	}

	for name, outcomes := range buckets {
		if outcomes == nil {
			outcomes = []model.Outcome{}
		}
		outcomesJSON, err := json.Marshal(outcomes)
		if err != nil {
			return eris.Wrapf(err, "checkpoint: marshal bucket %s", name)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bucket_snapshots (id, stage, bucket, outcomes)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(stage, bucket) DO UPDATE SET outcomes = excluded.outcomes`,
			uuid.New().String(), s.stage, name, string(outcomesJSON))
		if err != nil {
			return eris.Wrapf(err, "checkpoint: upsert bucket %s", name)
		}
	}

	return eris.Wrap(tx.Commit(), "checkpoint: commit")
}

func (s *SQLiteStore) Finalize(ctx context.Context, buckets Buckets, destinations map[string]string) error {
	for name, dest := range destinations {
		if err := model.SaveOutcomes(dest, buckets[name]); err != nil {
			return eris.Wrapf(err, "checkpoint: finalize bucket %s", name)
		}
	}
	return s.Reset(ctx)
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "checkpoint: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM bucket_snapshots WHERE stage = ?`, s.stage); err != nil {
		return eris.Wrap(err, "checkpoint: delete snapshots")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE stage = ?`, s.stage); err != nil {
		return eris.Wrap(err, "checkpoint: delete progress")
	}

	return eris.Wrap(tx.Commit(), "checkpoint: commit")
}
