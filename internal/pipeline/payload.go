package pipeline

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/paperlit/screener-cli/internal/model"
)

// DefaultMaxAbstractChars bounds the abstract text sent per paper.
const DefaultMaxAbstractChars = 1600

// ellipsisMarker is appended when an abstract is truncated, so the
// model can tell a cut-off abstract from a short one.
const ellipsisMarker = " …"

// payloadItem is the compact per-paper view embedded in the user prompt.
// Index is the paper's position within its batch and is how the reply
// is correlated back to the paper.
type payloadItem struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	Year     int    `json:"year"`
	Venue    string `json:"venue"`
}

// truncate shortens s to at most max characters (runes), appending the
// ellipsis marker when anything was cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsisMarker
}

// buildPayload renders a batch as indented JSON for prompt embedding.
func buildPayload(batch []model.Paper, maxAbstractChars int) (string, error) {
	items := make([]payloadItem, len(batch))
	for i, p := range batch {
		items[i] = payloadItem{
			Index:    i,
			Title:    p.Title,
			Abstract: truncate(p.Abstract, maxAbstractChars),
			URL:      p.URL,
			Year:     p.Year,
			Venue:    p.Venue,
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal payload")
	}
	return string(data), nil
}
