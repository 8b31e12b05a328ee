package ai

import (
	"context"
	"time"

	"question-bank-service/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// cannedReply is a minimal well-formed batch so the downstream pipeline can
// run end to end without a provider key.
const cannedReply = `{"questions":[{"type":"tf","stem":"The noop provider returns canned questions.","answer_key":"true","explanation":"Fixture reply for local runs.","difficulty":"easy","blooms_level":"remember"}]}`

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev runs.
// It returns a fixed reply instead of calling a real provider.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop-model"}, nil
}

func (a *NoopAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:        "noop-model",
		Description: "Fixture model for local runs",
		MaxTokens:   1024,
		Supports:    []string{"text"},
	}, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4 // rough chars-per-token estimate
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	// Simulate slight processing time and respect ctx.
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	in, _ := a.CountTokens(ctx, model, messages)
	return cannedReply, adapter.Usage{
		PromptTokens:     in,
		CompletionTokens: len(cannedReply) / 4,
		TotalTokens:      in + len(cannedReply)/4,
	}, nil
}
