package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"

	"github.com/loqalabs/podcaster/internal/config"
)

func TestOllamaGenerate(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"<think>hm</think>short summary","done":true,"eval_count":7,"prompt_eval_count":21}`))
	}))
	t.Cleanup(srv.Close)

	gen := NewOllamaGenerator(srv.URL+"/", "qwen2.5:8b")
	var chunks []Chunk
	err := gen.Generate(context.Background(), Request{Prompt: "summarize this"}, func(c Chunk) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Stream {
		t.Fatal("expected non-streaming request")
	}
	if got.Model != "qwen2.5:8b" || got.Prompt != "summarize this" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if len(chunks) != 1 || chunks[0].Partial {
		t.Fatalf("expected one final chunk, got %+v", chunks)
	}
	if chunks[0].Content != "<think>hm</think>short summary" {
		t.Fatalf("unexpected content %q", chunks[0].Content)
	}
	if chunks[0].CompletionTokens != 7 || chunks[0].PromptTokens != 21 {
		t.Fatalf("unexpected token counts %+v", chunks[0])
	}
}

func TestOllamaStreamedBodyIsJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"response\":\"hello \",\"done\":false}\n\n{\"response\":\"world\",\"done\":true}\n"))
	}))
	t.Cleanup(srv.Close)

	out, err := Complete(context.Background(), NewOllamaGenerator(srv.URL, ""), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("expected joined content, got %q", out)
	}
}

func TestOllamaErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		},
		"error field": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"out of memory"}`))
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			t.Cleanup(srv.Close)
			if _, err := Complete(context.Background(), NewOllamaGenerator(srv.URL, "m"), Request{Prompt: "x"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMockGenerator(t *testing.T) {
	out, err := Complete(context.Background(), NewMockGenerator(), Request{Prompt: "intro\nText: hello"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(out, "Text: hello") || !strings.HasPrefix(out, "<think>") {
		t.Fatalf("unexpected mock output %q", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Complete(ctx, NewMockGenerator(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestExecGenerator(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	gen, err := NewExecGenerator(`sh -c 'cat >/dev/null; echo "{\"content\":\"from exec\",\"completion_tokens\":3}"'`)
	if err != nil {
		t.Fatalf("new exec generator: %v", err)
	}
	out, err := Complete(context.Background(), gen, Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "from exec" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecGeneratorEmptyCommand(t *testing.T) {
	if _, err := NewExecGenerator("   "); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Mode = "mock"
	gen, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	if _, ok := gen.(*mockGenerator); !ok {
		t.Fatalf("expected mock generator, got %T", gen)
	}
	cfg.Mode = "ollama"
	gen, _ = NewFromConfig(cfg)
	if _, ok := gen.(*ollamaGenerator); !ok {
		t.Fatalf("expected ollama generator, got %T", gen)
	}
	opts := OptionsFromConfig(cfg)
	if opts.Model != cfg.Model {
		t.Fatalf("expected model %q in options, got %q", cfg.Model, opts.Model)
	}
}
