package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlit/screener-cli/internal/model"
)

func outcome(title, category string) model.Outcome {
	return model.Outcome{
		Paper:      model.Paper{Title: title, Year: 2024, Venue: "ICSE"},
		Category:   category,
		Confidence: 0.9,
	}
}

func TestSummarizeDistributionOrder(t *testing.T) {
	s := Summarize([]model.Outcome{
		outcome("a", "code search"),
		outcome("b", "code generation"),
		outcome("c", "code generation"),
	})

	require.Len(t, s.Distribution, len(model.Categories)+1)
	assert.Equal(t, "code generation", s.Distribution[0].Category)
	assert.Equal(t, 2, s.Distribution[0].Count)
	assert.Equal(t, model.CategoryOverflow, s.Distribution[len(s.Distribution)-1].Category)

	// Registry order is preserved regardless of counts.
	for i, cat := range model.Categories {
		assert.Equal(t, cat, s.Distribution[i].Category)
	}
}

func TestSummarizeCoercesUnknownToOverflow(t *testing.T) {
	unknown := outcome("x", "quantum weaving")
	unknown.RecommendedLabel = "prompt engineering"
	blank := outcome("y", "")

	s := Summarize([]model.Outcome{unknown, blank})

	last := s.Distribution[len(s.Distribution)-1]
	assert.Equal(t, model.CategoryOverflow, last.Category)
	assert.Equal(t, 2, last.Count)
	require.Len(t, s.ByCategory[model.CategoryOverflow], 2)

	require.Len(t, s.OverflowLabels, 2)
	labels := map[string]int{}
	for _, l := range s.OverflowLabels {
		labels[l.Label] = l.Count
	}
	assert.Equal(t, 1, labels["prompt engineering"])
	assert.Equal(t, 1, labels["—"])
}

func TestSummarizeOverflowLabelOrdering(t *testing.T) {
	a := outcome("1", model.CategoryOverflow)
	a.RecommendedLabel = "beta"
	b := outcome("2", model.CategoryOverflow)
	b.RecommendedLabel = "alpha"
	c := outcome("3", model.CategoryOverflow)
	c.RecommendedLabel = "beta"

	s := Summarize([]model.Outcome{a, b, c})

	require.Len(t, s.OverflowLabels, 2)
	assert.Equal(t, LabelCount{Label: "beta", Count: 2}, s.OverflowLabels[0])
	assert.Equal(t, LabelCount{Label: "alpha", Count: 1}, s.OverflowLabels[1])
}

func TestSummarizeTopThree(t *testing.T) {
	var outcomes []model.Outcome
	for i := 0; i < 5; i++ {
		outcomes = append(outcomes, outcome("g", "code generation"))
	}
	for i := 0; i < 3; i++ {
		outcomes = append(outcomes, outcome("r", "program repair"))
	}
	outcomes = append(outcomes, outcome("s", "code search"))

	s := Summarize(outcomes)

	require.Len(t, s.Top, 3)
	assert.Equal(t, "code generation", s.Top[0].Category)
	assert.Equal(t, 5, s.Top[0].Count)
	assert.Equal(t, "program repair", s.Top[1].Category)
	assert.Equal(t, "code search", s.Top[2].Category)
	assert.Equal(t, 3, s.NonEmpty)
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.NonEmpty)
	assert.Empty(t, s.Top)
	require.Len(t, s.Distribution, len(model.Categories)+1)
}

func TestRenderIncludesSections(t *testing.T) {
	over := outcome("odd one", model.CategoryOverflow)
	over.RecommendedLabel = "prompt engineering"
	over.Summary = "a study of prompts"

	s := Summarize([]model.Outcome{
		outcome("gen paper", "code generation"),
		over,
	})

	var buf bytes.Buffer
	Render(&buf, s, true)
	text := buf.String()

	assert.Contains(t, text, "Category distribution")
	assert.Contains(t, text, "Overflow recommendations")
	assert.Contains(t, text, "prompt engineering")
	assert.Contains(t, text, "Papers: 2")
	assert.Contains(t, text, "Top 1:")
	assert.Contains(t, text, "gen paper")
	assert.Contains(t, text, "a study of prompts")
}

func TestRenderWithoutTitles(t *testing.T) {
	s := Summarize([]model.Outcome{outcome("hidden title", "code generation")})

	var buf bytes.Buffer
	Render(&buf, s, false)

	assert.NotContains(t, buf.String(), "hidden title")
}
