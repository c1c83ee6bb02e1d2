package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/loqalabs/podcaster/internal/config"
)

// Request describes a language model prompt.
type Request struct {
	RequestID   string
	Prompt      string
	System      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Chunk represents model output. Backends that answer in one piece emit a
// single non-partial chunk.
type Chunk struct {
	RequestID        string
	Content          string
	Partial          bool
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator defines a pluggable LLM backend.
type Generator interface {
	Generate(ctx context.Context, req Request, consumer func(Chunk) error) error
}

// OptionsFromConfig builds request defaults from config.
func OptionsFromConfig(cfg config.LLMConfig) Request {
	return Request{Model: cfg.Model, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
}

// NewFromConfig picks the backend named by cfg.Mode.
func NewFromConfig(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Mode {
	case "ollama":
		g := NewOllamaGenerator(cfg.Endpoint, cfg.Model).(*ollamaGenerator)
		if cfg.TimeoutMS > 0 {
			g.client = &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
		}
		return g, nil
	case "exec":
		return NewExecGenerator(cfg.Command)
	default:
		return NewMockGenerator(), nil
	}
}

// Complete runs req through g and joins every chunk into one string.
func Complete(ctx context.Context, g Generator, req Request) (string, error) {
	var content []byte
	err := g.Generate(ctx, req, func(chunk Chunk) error {
		content = append(content, chunk.Content...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(content), nil
}
