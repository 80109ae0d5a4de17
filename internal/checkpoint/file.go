package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/paperlit/screener-cli/internal/model"
)

// FileStore keeps the checkpoint as JSON files in a directory: a
// progress descriptor plus one human-diffable snapshot per bucket.
type FileStore struct {
	dir   string
	stage string
}

// NewFileStore returns a file-backed Store for the given stage, with
// all artifacts under dir.
func NewFileStore(dir, stage string) *FileStore {
	return &FileStore{dir: dir, stage: stage}
}

func (s *FileStore) progressPath() string {
	return filepath.Join(s.dir, fmt.Sprintf(".progress-%s.json", s.stage))
}

func (s *FileStore) bucketPath(bucket string) string {
	return filepath.Join(s.dir, fmt.Sprintf(".partial-%s-%s.json", s.stage, bucket))
}

func (s *FileStore) Load(_ context.Context) (bool, *State, Buckets, error) {
	data, err := os.ReadFile(s.progressPath())
	if err != nil {
		// Absent or unreadable progress means a fresh start, never a
		// fatal error.
		return false, nil, nil, nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		zap.L().Warn("checkpoint: unreadable progress descriptor, starting fresh",
			zap.String("stage", s.stage),
			zap.Error(err),
		)
		return false, nil, nil, nil
	}

	buckets := make(Buckets, len(state.BucketCounts))
	for name := range state.BucketCounts {
		outcomes, err := model.LoadOutcomes(s.bucketPath(name))
		if err != nil {
			zap.L().Warn("checkpoint: bucket snapshot missing or corrupt, starting fresh",
				zap.String("stage", s.stage),
				zap.String("bucket", name),
				zap.Error(err),
			)
			return false, nil, nil, nil
		}
		buckets[name] = outcomes
	}

	if !consistent(&state, buckets) {
		zap.L().Warn("checkpoint: snapshot counts disagree with descriptor, starting fresh",
			zap.String("stage", s.stage),
		)
		return false, nil, nil, nil
	}

	return true, &state, buckets, nil
}

func (s *FileStore) Save(_ context.Context, state *State, buckets Buckets) error {
	// Snapshots first, descriptor last: a descriptor is only trusted if
	// every snapshot it references checks out, so a crash between the
	// two leaves the previous checkpoint intact.
	for name, outcomes := range buckets {
		if err := writeFileAtomic(s.bucketPath(name), mustOutcomesJSON(outcomes)); err != nil {
			return eris.Wrapf(err, "checkpoint: save bucket %s", name)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal progress")
	}
	if err := writeFileAtomic(s.progressPath(), data); err != nil {
		return eris.Wrap(err, "checkpoint: save progress")
	}
	return nil
}

func (s *FileStore) Finalize(_ context.Context, buckets Buckets, destinations map[string]string) error {
	for name, dest := range destinations {
		if err := model.SaveOutcomes(dest, buckets[name]); err != nil {
			return eris.Wrapf(err, "checkpoint: finalize bucket %s", name)
		}
	}
	return s.removeArtifacts()
}

func (s *FileStore) Reset(_ context.Context) error {
	return s.removeArtifacts()
}

func (s *FileStore) removeArtifacts() error {
	pattern := filepath.Join(s.dir, fmt.Sprintf(".partial-%s-*.json", s.stage))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return eris.Wrap(err, "checkpoint: glob partials")
	}
	matches = append(matches, s.progressPath())

	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "checkpoint: remove %s", path)
		}
	}
	return nil
}

func mustOutcomesJSON(outcomes []model.Outcome) []byte {
	if outcomes == nil {
		outcomes = []model.Outcome{}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		// Outcome contains only JSON-encodable fields.
		panic(err)
	}
	return data
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it into place, so readers never observe a torn write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "create temp")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "write temp")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "close temp")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "rename temp")
	}
	return nil
}
