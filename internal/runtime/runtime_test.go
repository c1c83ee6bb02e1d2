package runtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loqalabs/podcaster/internal/config"
	"github.com/loqalabs/podcaster/internal/podcast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LLM.Mode = "mock"
	cfg.TTS.Mode = "mock"
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Output.Directory = filepath.Join(dir, "audios")
	return cfg
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineGeneratesAndRecords(t *testing.T) {
	ctx := context.Background()
	p, err := NewPipeline(ctx, testConfig(t), newLogger())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	defer p.Close()

	res := p.Service.Generate(ctx, podcast.Request{Language: "🇮🇹 Italian", Text: "Ciao a tutti. Oggi parliamo di Go.", Summarize: true})
	if !res.OK() {
		t.Fatalf("generate: %v", res.Err)
	}
	if filepath.Dir(res.Path) != p.Writer.Dir() {
		t.Fatalf("audio written outside output dir: %s", res.Path)
	}

	entries, err := p.History.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Code != "i" || !entries[0].Summarized {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestPipelineRejectsUnknownTTSMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.TTS.Mode = "festival"
	if _, err := NewPipeline(context.Background(), cfg, newLogger()); err == nil {
		t.Fatal("expected error for unknown tts mode")
	}
}

func TestReadiness(t *testing.T) {
	r := New(testConfig(t), "test", newLogger())

	rec := httptest.NewRecorder()
	r.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before start, got %d", rec.Code)
	}

	r.ready.Store(true)
	rec = httptest.NewRecorder()
	r.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", rec.Code)
	}
}

func TestMetricsServedOnce(t *testing.T) {
	ctx := context.Background()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })

	get := func(mux *http.ServeMux, path string) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	cfg := testConfig(t)
	p, err := NewPipeline(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	defer p.Close()

	mux, separate := New(cfg, "test", newLogger()).routes(p, metrics)
	if separate != nil {
		t.Fatal("metrics should share the main listener when prometheus_bind is empty")
	}
	if code := get(mux, "/metrics"); code != http.StatusOK {
		t.Fatalf("expected /metrics on main mux, got %d", code)
	}

	cfg.Telemetry.PrometheusBind = "127.0.0.1:0"
	mux, separate = New(cfg, "test", newLogger()).routes(p, metrics)
	if separate == nil {
		t.Fatal("expected a dedicated metrics mux")
	}
	if code := get(mux, "/metrics"); code != http.StatusNotFound {
		t.Fatalf("main mux must not serve /metrics when a bind is set, got %d", code)
	}
	if code := get(separate, "/metrics"); code != http.StatusOK {
		t.Fatalf("expected /metrics on dedicated mux, got %d", code)
	}
	if code := get(mux, "/healthz"); code != http.StatusOK {
		t.Fatalf("expected healthz on main mux, got %d", code)
	}
}

func TestTelemetryExportsGenerationBuckets(t *testing.T) {
	cfg := testConfig(t)
	shutdown, handler, err := setupTelemetry(cfg, "1.2.3", newLogger())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background())
	if handler == nil {
		t.Fatal("expected a metrics handler")
	}

	hist, err := otel.Meter("test").Float64Histogram("podcaster.generation.duration", metric.WithUnit("s"))
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	hist.Record(context.Background(), 1.5)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	var buckets []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "podcaster_generation_duration") && strings.Contains(line, "_bucket{") {
			buckets = append(buckets, line)
		}
	}
	if len(buckets) == 0 {
		t.Fatalf("duration histogram missing from scrape:\n%s", body)
	}
	joined := strings.Join(buckets, "\n")
	if !strings.Contains(joined, `le="0.5"`) || !strings.Contains(joined, `le="2"`) {
		t.Fatalf("expected second-scale buckets, got:\n%s", joined)
	}
	if strings.Contains(joined, `le="10000"`) {
		t.Fatalf("default millisecond buckets leaked:\n%s", joined)
	}
	if !strings.Contains(body, `service_version="1.2.3"`) {
		t.Fatalf("expected service.version resource attribute in scrape")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected Go runtime collectors in scrape")
	}
}
