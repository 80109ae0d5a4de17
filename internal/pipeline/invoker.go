package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/paperlit/screener-cli/internal/llmjson"
	"github.com/paperlit/screener-cli/internal/model"
	"github.com/paperlit/screener-cli/internal/resilience"
	"github.com/paperlit/screener-cli/pkg/anthropic"
)

// Invoker classifies one batch of papers into loosely-typed records.
// The driver depends on this interface so tests can substitute a
// deterministic implementation.
type Invoker interface {
	ClassifyBatch(ctx context.Context, batch []model.Paper) ([]map[string]any, error)
}

// LLMInvoker drives the external completion service for one stage:
// build the batch payload, call the model, repair and parse the reply,
// and retry with exponential backoff on any failure.
type LLMInvoker struct {
	client           anthropic.Client
	stage            Stage
	model            string
	maxAbstractChars int
	retry            resilience.RetryConfig

	usage anthropic.TokenUsage
}

// NewLLMInvoker wires an invoker for the given stage. The anthropic
// handle is owned by the caller.
func NewLLMInvoker(client anthropic.Client, stage Stage, modelID string, maxAbstractChars int, retry resilience.RetryConfig) *LLMInvoker {
	if maxAbstractChars <= 0 {
		maxAbstractChars = DefaultMaxAbstractChars
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(stage.Name)
	}
	return &LLMInvoker{
		client:           client,
		stage:            stage,
		model:            modelID,
		maxAbstractChars: maxAbstractChars,
		retry:            retry,
	}
}

// ClassifyBatch sends one batch and returns the raw record list, not
// yet validated against the batch. Invocation and response-format
// failures both retry on the base*2^attempt schedule; after exhausting
// max_retries+1 attempts the last error propagates and is fatal for the
// batch.
func (inv *LLMInvoker) ClassifyBatch(ctx context.Context, batch []model.Paper) ([]map[string]any, error) {
	payload, err := buildPayload(batch, inv.maxAbstractChars)
	if err != nil {
		return nil, err
	}

	temp := inv.stage.Temperature
	req := anthropic.MessageRequest{
		Model:       inv.model,
		MaxTokens:   inv.stage.MaxTokens,
		System:      inv.stage.SystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: inv.stage.RenderUserPrompt(payload)},
		},
	}

	return resilience.Do(ctx, inv.retry, func(ctx context.Context) ([]map[string]any, error) {
		resp, err := inv.client.CreateMessage(ctx, req)
		if err != nil {
			return nil, eris.Wrapf(err, "invoker: %s completion", inv.stage.Name)
		}
		inv.usage.Add(resp.Usage)

		records, err := llmjson.ParseRecords(resp.Text())
		if err != nil {
			return nil, resilience.NewFormatError(err)
		}
		return records, nil
	})
}

// Usage reports the tokens consumed so far, across retries.
func (inv *LLMInvoker) Usage() anthropic.TokenUsage {
	return inv.usage
}

// Model returns the configured model identifier.
func (inv *LLMInvoker) Model() string {
	return inv.model
}
