package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loqalabs/podcaster/internal/llm"
)

type fakeGenerator struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request, consumer func(llm.Chunk) error) error {
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return f.err
	}
	return consumer(llm.Chunk{Content: f.reply})
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("the article")
	if !strings.Contains(p, "Text: the article") {
		t.Fatalf("text not substituted: %q", p)
	}
	if !strings.Contains(p, "conversational tone") || !strings.Contains(p, "general audience") {
		t.Fatalf("missing instructions: %q", p)
	}
	if strings.Contains(p, "{text}") {
		t.Fatalf("placeholder left in prompt")
	}
}

func TestSummarizeCleansOutput(t *testing.T) {
	gen := &fakeGenerator{reply: "<think>\nplanning the summary\n</think>\n\nHere are the key points. "}
	s := New(gen, llm.Request{Model: "qwen2.5:8b"})

	out, err := s.Summarize(context.Background(), "req-1", "long article")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "Here are the key points." {
		t.Fatalf("unexpected summary %q", out)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", gen.calls)
	}
	if !strings.Contains(gen.prompts[0], "Text: long article") {
		t.Fatalf("prompt missing text: %q", gen.prompts[0])
	}
}

func TestSummarizePropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	gen := &fakeGenerator{err: boom}
	s := New(gen, llm.Request{})

	if _, err := s.Summarize(context.Background(), "req-1", "text"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped collaborator error, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected no retries, got %d calls", gen.calls)
	}
}

func TestSummarizeRejectsEmpty(t *testing.T) {
	gen := &fakeGenerator{}
	if _, err := New(gen, llm.Request{}).Summarize(context.Background(), "", "  \n"); err == nil {
		t.Fatal("expected error for blank text")
	}
	if gen.calls != 0 {
		t.Fatal("generator must not be called for blank text")
	}
}
