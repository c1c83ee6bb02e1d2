package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loqalabs/podcaster/internal/audio"
	"github.com/loqalabs/podcaster/internal/config"
	"github.com/loqalabs/podcaster/internal/history"
	"github.com/loqalabs/podcaster/internal/llm"
	"github.com/loqalabs/podcaster/internal/podcast"
	"github.com/loqalabs/podcaster/internal/summary"
	"github.com/loqalabs/podcaster/internal/tts"
)

// Pipeline holds the generation service and the resources it owns.
type Pipeline struct {
	Service *podcast.Service
	History *history.Store
	Writer  *audio.Writer
}

// NewPipeline builds the collaborators named by cfg and wires them into a
// podcast service.
func NewPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	generator, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	engine, err := tts.NewFromConfig(cfg.TTS)
	if err != nil {
		return nil, fmt.Errorf("init tts: %w", err)
	}

	store, err := history.Open(ctx, cfg.History, logger.With(slog.String("component", "history")))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	writer := audio.NewWriter(cfg.Output, cfg.TTS.SampleRate)
	synth := audio.NewSynthesizer(engine, writer, cfg.TTS.Voice, cfg.TTS.SampleRate)
	summarizer := summary.New(generator, llm.OptionsFromConfig(cfg.LLM))

	var recorder podcast.Recorder
	if store.Enabled() {
		recorder = store
	}

	logger.Info("pipeline ready",
		slog.String("llm_mode", cfg.LLM.Mode),
		slog.String("tts_mode", cfg.TTS.Mode),
		slog.String("output_dir", writer.Dir()),
		slog.Bool("history", store.Enabled()))

	return &Pipeline{
		Service: podcast.New(summarizer, synth, recorder, logger),
		History: store,
		Writer:  writer,
	}, nil
}

func (p *Pipeline) Close() error {
	if p == nil || p.History == nil {
		return nil
	}
	return p.History.Close()
}
