package model

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// LoadPapers reads a JSON array of papers from path.
func LoadPapers(path string) ([]Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read %s", path)
	}

	var papers []Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, eris.Wrapf(err, "model: parse %s", path)
	}
	return papers, nil
}

// SavePapers writes papers to path as indented JSON.
func SavePapers(path string, papers []Paper) error {
	return writeJSON(path, papers)
}

// LoadOutcomes reads a JSON array of outcomes from path.
func LoadOutcomes(path string) ([]Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read %s", path)
	}

	var outcomes []Outcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return nil, eris.Wrapf(err, "model: parse %s", path)
	}
	return outcomes, nil
}

// SaveOutcomes writes outcomes to path as indented JSON.
func SaveOutcomes(path string, outcomes []Outcome) error {
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	return writeJSON(path, outcomes)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "model: marshal")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "model: write %s", path)
	}
	return nil
}
