package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlit/screener-cli/internal/model"
)

func makePapers(n int) []model.Paper {
	papers := make([]model.Paper, n)
	for i := range papers {
		papers[i] = model.Paper{Title: fmt.Sprintf("paper-%d", i)}
	}
	return papers
}

func TestPlan_EvenSplit(t *testing.T) {
	batches, err := Plan(makePapers(8), 4)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
}

func TestPlan_ShortFinalBatch(t *testing.T) {
	batches, err := Plan(makePapers(10), 4)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
	assert.Len(t, batches[2], 2)
}

func TestPlan_PreservesOrder(t *testing.T) {
	batches, err := Plan(makePapers(5), 2)
	require.NoError(t, err)

	var titles []string
	for _, b := range batches {
		for _, p := range b {
			titles = append(titles, p.Title)
		}
	}
	assert.Equal(t, []string{"paper-0", "paper-1", "paper-2", "paper-3", "paper-4"}, titles)
}

func TestPlan_Empty(t *testing.T) {
	batches, err := Plan(nil, 4)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPlan_SingleOversizedBatch(t *testing.T) {
	batches, err := Plan(makePapers(3), 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestPlan_InvalidSize(t *testing.T) {
	_, err := Plan(makePapers(3), 0)
	assert.Error(t, err)

	_, err = Plan(makePapers(3), -1)
	assert.Error(t, err)
}
