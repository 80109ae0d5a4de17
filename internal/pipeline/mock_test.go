package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/paperlit/screener-cli/internal/checkpoint"
	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/pkg/anthropic"
)

// mockAnthropicClient is a testify mock over the completion client.
type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// scriptedInvoker returns canned record lists per call, in order, and
// tracks which batches it was asked to classify.
type scriptedInvoker struct {
	mu      sync.Mutex
	replies []scriptedReply
	calls   [][]model.Paper
}

type scriptedReply struct {
	records []map[string]any
	err     error
}

func (s *scriptedInvoker) ClassifyBatch(_ context.Context, batch []model.Paper) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, batch)
	if len(s.replies) == 0 {
		return nil, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply.records, reply.err
}

// echoInvoker classifies every paper in the batch as included, keyed by
// its positional index. Useful when the test only cares about driver
// mechanics, not record content.
type echoInvoker struct {
	mu    sync.Mutex
	calls [][]model.Paper
}

func (e *echoInvoker) ClassifyBatch(_ context.Context, batch []model.Paper) ([]map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, batch)
	records := make([]map[string]any, len(batch))
	for i := range batch {
		records[i] = map[string]any{
			"index":      float64(i),
			"decision":   "include",
			"reason":     "",
			"confidence": 0.9,
		}
	}
	return records, nil
}

// memStore is an in-memory checkpoint.Store with optional fault
// injection after a given number of saves.
type memStore struct {
	mu sync.Mutex

	found   bool
	state   *checkpoint.State
	buckets checkpoint.Buckets

	saves     int
	failAfter int // fail the save once saves reaches this count; 0 disables
	failErr   error

	finalized    bool
	finalBuckets checkpoint.Buckets
	destinations map[string]string
	resets       int
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) Load(context.Context) (bool, *checkpoint.State, checkpoint.Buckets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.found {
		return false, nil, nil, nil
	}
	return true, cloneState(m.state), cloneBuckets(m.buckets), nil
}

func (m *memStore) Save(_ context.Context, state *checkpoint.State, buckets checkpoint.Buckets) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failAfter > 0 && m.saves >= m.failAfter {
		return m.failErr
	}
	m.found = true
	m.state = cloneState(state)
	m.buckets = cloneBuckets(buckets)
	return nil
}

func (m *memStore) Finalize(_ context.Context, buckets checkpoint.Buckets, destinations map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalized = true
	m.finalBuckets = cloneBuckets(buckets)
	m.destinations = destinations
	m.found = false
	m.state = nil
	m.buckets = nil
	return nil
}

func (m *memStore) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.found = false
	m.state = nil
	m.buckets = nil
	return nil
}

func cloneState(s *checkpoint.State) *checkpoint.State {
	if s == nil {
		return nil
	}
	out := *s
	out.BucketCounts = make(map[string]int, len(s.BucketCounts))
	for k, v := range s.BucketCounts {
		out.BucketCounts[k] = v
	}
	return &out
}

func cloneBuckets(b checkpoint.Buckets) checkpoint.Buckets {
	out := make(checkpoint.Buckets, len(b))
	for name, outcomes := range b {
		copied := make([]model.Outcome, len(outcomes))
		copy(copied, outcomes)
		out[name] = copied
	}
	return out
}

// samplePapers builds n distinct papers.
func samplePapers(n int) []model.Paper {
	papers := make([]model.Paper, n)
	for i := range papers {
		papers[i] = model.Paper{
			Title:    "Paper " + string(rune('A'+i)),
			Abstract: "An abstract about large language models and code.",
			URL:      "https://example.org/paper",
			Year:     2023,
			Venue:    "ICSE",
		}
	}
	return papers
}
