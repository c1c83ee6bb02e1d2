// Package summary condenses long text into a spoken-style summary using a
// language model.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loqalabs/podcaster/internal/llm"
	"github.com/loqalabs/podcaster/internal/textclean"
)

const promptTemplate = `
Summarize the following text by highlighting the key points.
Maintain a conversational tone and keep the summary easy to follow for a general audience.
Text: {text}
`

// BuildPrompt substitutes text into the summary instructions.
func BuildPrompt(text string) string {
	return strings.Replace(promptTemplate, "{text}", text, 1)
}

type Summarizer struct {
	gen      llm.Generator
	defaults llm.Request
}

// New returns a Summarizer that sends prompts to gen. defaults supplies model
// and sampling options; its Prompt is ignored.
func New(gen llm.Generator, defaults llm.Request) *Summarizer {
	return &Summarizer{gen: gen, defaults: defaults}
}

// Summarize makes exactly one model call and returns the cleaned response.
func (s *Summarizer) Summarize(ctx context.Context, requestID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("summarize: empty text")
	}
	req := s.defaults
	req.RequestID = requestID
	req.Prompt = BuildPrompt(text)

	raw, err := llm.Complete(ctx, s.gen, req)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return textclean.Clean(raw), nil
}
