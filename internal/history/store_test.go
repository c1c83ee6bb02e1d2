package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/podcaster/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTemp(t *testing.T, cfg config.HistoryConfig) *Store {
	t.Helper()
	cfg.Enabled = true
	cfg.Path = filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenDisabled(t *testing.T) {
	s, err := Open(context.Background(), config.HistoryConfig{Enabled: false}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Enabled() {
		t.Fatal("disabled store reports enabled")
	}
	if err := s.Append(context.Background(), Entry{ID: "x"}); err != nil {
		t.Fatalf("append on disabled store: %v", err)
	}
	entries, err := s.ListRecent(context.Background(), 5)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries, got %v, %v", entries, err)
	}
}

func TestAppendAndList(t *testing.T) {
	s := openTemp(t, config.HistoryConfig{})
	ctx := context.Background()

	s.clock = func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) }
	if err := s.Append(ctx, Entry{ID: "first", Language: "French", Code: "f", Succeeded: true, Status: "ok", Path: "audios/audio.wav", TextChars: 12, Duration: 1500 * time.Millisecond}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.clock = func() time.Time { return time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC) }
	if err := s.Append(ctx, Entry{ID: "second", Language: "Klingon", Status: "Error: unknown language", ErrorKind: "unknown_language"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "second" || entries[1].ID != "first" {
		t.Fatalf("expected newest first, got %s, %s", entries[0].ID, entries[1].ID)
	}
	first := entries[1]
	if !first.Succeeded || first.Path != "audios/audio.wav" || first.Code != "f" || first.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected entry %+v", first)
	}
	if !first.CreatedAt.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", first.CreatedAt)
	}
	if entries[0].ErrorKind != "unknown_language" || entries[0].Succeeded {
		t.Fatalf("unexpected failure entry %+v", entries[0])
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	s := openTemp(t, config.HistoryConfig{RetentionDays: 1, MaxEntries: 1})
	ctx := context.Background()

	s.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.Append(ctx, Entry{ID: "old", Language: "a", Status: "ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	for _, id := range []string{"mid", "new"} {
		if err := s.Append(ctx, Entry{ID: id, Language: "a", Status: "ok"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Fatalf("expected only newest entry to survive, got %+v", entries)
	}
}
