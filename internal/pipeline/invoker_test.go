package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperlit/screener-cli/internal/resilience"
	"github.com/paperlit/screener-cli/pkg/anthropic"
)

func textResponse(body string, in, out int64) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_test",
		Content: []anthropic.ContentBlock{{Type: "text", Text: body}},
		Usage:   anthropic.TokenUsage{InputTokens: in, OutputTokens: out},
	}
}

func fastRetry(maxRetries int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
		OnRetry:    func(int, time.Duration, error) {},
	}
}

func TestClassifyBatchEmbedsPayload(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.System == screenSystemPrompt &&
			req.Temperature != nil && *req.Temperature == 0.1 &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user"
	})).Return(textResponse(`[{"index": 0, "decision": "include", "confidence": 0.9}]`, 100, 20), nil)

	inv := NewLLMInvoker(client, ScreenStage(), "claude-haiku-4-5-20251001", 0, fastRetry(0))
	records, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "include", records[0]["decision"])
	client.AssertExpectations(t)

	// The user prompt carries the paper's title inside the JSON payload.
	req := client.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.Contains(t, req.Messages[0].Content, `"Paper A"`)
	assert.Contains(t, req.Messages[0].Content, `"index": 0`)
}

func TestClassifyBatchRepairsFencedReply(t *testing.T) {
	client := new(mockAnthropicClient)
	body := "```json\n[{\"index\": 0, \"decision\": \"exclude\", \"reason\": \"no LLM\", \"confidence\": 0.8}]\n```"
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(body, 50, 10), nil)

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(0))
	records, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "exclude", records[0]["decision"])
}

func TestClassifyBatchRetriesTransportError(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("overloaded")).Twice()
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`[{"index": 0, "decision": "include", "confidence": 0.9}]`, 30, 10), nil).Once()

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(3))
	records, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	client.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestClassifyBatchRetriesMalformedReply(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("I could not produce JSON this time.", 30, 10), nil).Once()
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`[{"index": 0, "decision": "include", "confidence": 0.9}]`, 30, 10), nil).Once()

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(1))
	records, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	client.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestClassifyBatchExhaustsRetries(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("overloaded"))

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(2))
	_, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screen completion")
	client.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestClassifyBatchFormatErrorAfterExhaustion(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("still not JSON", 10, 5), nil)

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(1))
	_, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.Error(t, err)
	assert.True(t, resilience.IsFormat(err))
	client.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestClassifyBatchAccumulatesUsage(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`[{"index": 0, "decision": "include", "confidence": 0.9}]`, 120, 40), nil)

	inv := NewLLMInvoker(client, ScreenStage(), "m", 0, fastRetry(0))
	_, err := inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)
	_, err = inv.ClassifyBatch(context.Background(), samplePapers(1))
	require.NoError(t, err)

	usage := inv.Usage()
	assert.Equal(t, int64(240), usage.InputTokens)
	assert.Equal(t, int64(80), usage.OutputTokens)
}

func TestClassifyBatchTruncatesAbstracts(t *testing.T) {
	client := new(mockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`[{"index": 0, "decision": "include", "confidence": 0.9}]`, 10, 5), nil)

	papers := samplePapers(1)
	long := make([]rune, 500)
	for i := range long {
		long[i] = 'x'
	}
	papers[0].Abstract = string(long)

	inv := NewLLMInvoker(client, ScreenStage(), "m", 100, fastRetry(0))
	_, err := inv.ClassifyBatch(context.Background(), papers)
	require.NoError(t, err)

	req := client.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.NotContains(t, req.Messages[0].Content, string(long))
	assert.Contains(t, req.Messages[0].Content, "…")
}
