package tts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/loqalabs/podcaster/internal/config"
	"github.com/loqalabs/podcaster/internal/language"
)

// SynthRequest contains parameters to synthesize speech.
type SynthRequest struct {
	RequestID string
	Text      string
	Voice     string
}

// SynthChunk carries one buffer of 16-bit little-endian PCM.
type SynthChunk struct {
	RequestID  string
	Sequence   int
	SampleRate int
	Channels   int
	PCM        []byte
	Final      bool
}

// Samples reports the number of frames in the chunk.
func (c SynthChunk) Samples() int {
	channels := c.Channels
	if channels <= 0 {
		channels = 1
	}
	return len(c.PCM) / 2 / channels
}

// Synthesizer produces audio for one language. The chunk stream is finite and
// can be drained only once; at most one error is delivered on the error channel.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error)
}

// Engine opens synthesizers bound to a language code.
type Engine interface {
	Open(ctx context.Context, lang language.Code) (Synthesizer, error)
}

// NewFromConfig picks the engine named by cfg.Mode.
func NewFromConfig(cfg config.TTSConfig) (Engine, error) {
	switch cfg.Mode {
	case "kokoro":
		client := http.DefaultClient
		if cfg.TimeoutMS > 0 {
			client = &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
		}
		return NewKokoroEngine(KokoroOptions{
			Endpoint:   cfg.Endpoint,
			Model:      cfg.Model,
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Client:     client,
		}), nil
	case "exec":
		return NewExecEngine(cfg.Command, cfg.SampleRate, cfg.Channels)
	case "mock":
		return NewMockEngine(cfg.SampleRate, cfg.Channels), nil
	default:
		return nil, fmt.Errorf("unsupported tts mode %q", cfg.Mode)
	}
}

// Drain reads every chunk in production order until the stream closes. It
// returns the first error the synthesizer reports.
func Drain(ctx context.Context, chunks <-chan SynthChunk, errs <-chan error) ([]SynthChunk, error) {
	var out []SynthChunk
	for chunks != nil || errs != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			out = append(out, chunk)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return out, err
			}
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, nil
}

func validLanguage(lang language.Code) error {
	if len(lang) != 1 {
		return fmt.Errorf("invalid language code %q", lang)
	}
	return nil
}

func send(ctx context.Context, ch chan<- SynthChunk, chunk SynthChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
