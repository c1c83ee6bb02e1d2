package llm

import (
	"context"
	"strings"
	"time"
)

type mockGenerator struct{}

// NewMockGenerator answers every prompt with a canned completion, wrapped in a
// reasoning block like the local models produce.
func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, req Request, consumer func(Chunk) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	content := "<think>mock reasoning</think>[mock summary of " + lastLine(req.Prompt) + "]"
	return consumer(Chunk{
		RequestID: req.RequestID,
		Content:   content,
		Partial:   false,
		Latency:   20 * time.Millisecond,
	})
}

func lastLine(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	if i := strings.LastIndex(trimmed, "\n"); i >= 0 {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return trimmed
}
