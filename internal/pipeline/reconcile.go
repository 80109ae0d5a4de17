package pipeline

import (
	"encoding/json"
	"math"

	"github.com/paperlit/screener-cli/internal/model"
)

// Warning flags a reconciliation repair: a record whose declared index
// was missing or out of range, a duplicate record for an already
// assigned paper, or a paper no record covered. Warnings are never
// fatal but can mean a classification was attributed to the wrong
// paper, so the driver logs every one.
type Warning struct {
	Kind          string // "index_fallback", "duplicate_record", "unmatched_item"
	RecordPos     int    // position of the record in the reply, -1 for unmatched_item
	DeclaredIndex any    // the raw index value as returned, if any
	AssignedIndex int    // the batch-local index the outcome landed on
}

// Reconcile maps raw reply records back to the papers of one batch and
// routes every paper to exactly one bucket. Pure: no I/O, no logging.
//
// A record targets the paper at its declared index when that is an
// integer within [0, len(batch)); otherwise it falls back to the
// record's own position in the reply, clamped to the valid range. The
// first record to claim a paper wins; later claims are dropped. Papers
// left unclaimed get the stage's unmatched record and land in the
// default bucket.
func Reconcile(stage Stage, batch []model.Paper, records []map[string]any) (map[string][]model.Outcome, []Warning) {
	assigned := make([]*model.Record, len(batch))
	var warnings []Warning

	for pos, raw := range records {
		if len(batch) == 0 {
			break
		}

		target, declared, ok := declaredIndex(raw, len(batch))
		if !ok {
			target = pos
			if target >= len(batch) {
				target = len(batch) - 1
			}
			warnings = append(warnings, Warning{
				Kind:          "index_fallback",
				RecordPos:     pos,
				DeclaredIndex: declared,
				AssignedIndex: target,
			})
		}

		if assigned[target] != nil {
			warnings = append(warnings, Warning{
				Kind:          "duplicate_record",
				RecordPos:     pos,
				DeclaredIndex: declared,
				AssignedIndex: target,
			})
			continue
		}

		rec := stage.Normalize(raw)
		rec.Index = target
		rec.Confidence = confidenceField(raw)
		assigned[target] = &rec
	}

	buckets := make(map[string][]model.Outcome, len(stage.Buckets))
	for _, name := range stage.Buckets {
		buckets[name] = []model.Outcome{}
	}

	for i, paper := range batch {
		rec := assigned[i]
		if rec == nil {
			unmatched := stage.Unmatched()
			unmatched.Index = i
			rec = &unmatched
			warnings = append(warnings, Warning{
				Kind:          "unmatched_item",
				RecordPos:     -1,
				AssignedIndex: i,
			})
		}

		bucket := stage.Route(*rec)
		if _, ok := buckets[bucket]; !ok {
			bucket = stage.DefaultBucket
		}
		buckets[bucket] = append(buckets[bucket], model.NewOutcome(paper, *rec))
	}

	return buckets, warnings
}

// declaredIndex extracts the record's declared index when it is an
// integral number within [0, size). The raw value is returned for
// warning context either way.
func declaredIndex(raw map[string]any, size int) (int, any, bool) {
	v, present := raw["index"]
	if !present {
		return 0, nil, false
	}

	var idx float64
	switch n := v.(type) {
	case float64:
		idx = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, v, false
		}
		idx = f
	default:
		return 0, v, false
	}

	if idx != math.Trunc(idx) {
		return 0, v, false
	}
	i := int(idx)
	if i < 0 || i >= size {
		return 0, v, false
	}
	return i, v, true
}

// confidenceField coerces the confidence value; anything missing or
// non-numeric becomes 0.0.
func confidenceField(raw map[string]any) float64 {
	switch n := raw["confidence"].(type) {
	case float64:
		return n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return 0.0
}
