// Package batch splits an ordered paper list into fixed-size,
// order-preserving batches for the classification driver.
package batch

import (
	"github.com/rotisserie/eris"

	"github.com/paperlit/screener-cli/internal/model"
)

// Plan partitions papers into contiguous batches of at most size items,
// preserving order. The final batch may be shorter. A non-positive size
// is a configuration error.
func Plan(papers []model.Paper, size int) ([][]model.Paper, error) {
	if size <= 0 {
		return nil, eris.Errorf("batch: size must be positive, got %d", size)
	}

	batches := make([][]model.Paper, 0, (len(papers)+size-1)/size)
	for start := 0; start < len(papers); start += size {
		end := start + size
		if end > len(papers) {
			end = len(papers)
		}
		batches = append(batches, papers[start:end])
	}
	return batches, nil
}
