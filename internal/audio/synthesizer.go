// Package audio turns synthesized speech into the single WAV artifact kept in
// the output directory.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loqalabs/podcaster/internal/language"
	"github.com/loqalabs/podcaster/internal/tts"
)

// ErrEmptySynthesis means the engine produced no audio for the text.
var ErrEmptySynthesis = errors.New("synthesis produced no audio")

// Synthesizer drives a tts.Engine and persists its output through a Writer.
type Synthesizer struct {
	engine     tts.Engine
	writer     *Writer
	voice      string
	sampleRate int
}

func NewSynthesizer(engine tts.Engine, writer *Writer, voice string, sampleRate int) *Synthesizer {
	return &Synthesizer{engine: engine, writer: writer, voice: voice, sampleRate: sampleRate}
}

// Synthesize speaks text in lang and returns the path of the written file.
// Stale audio is removed only once the new audio is known to be non-empty.
func (s *Synthesizer) Synthesize(ctx context.Context, requestID string, lang language.Code, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("synthesize: empty text")
	}
	if err := s.writer.EnsureDir(); err != nil {
		return "", err
	}

	synth, err := s.engine.Open(ctx, lang)
	if err != nil {
		return "", fmt.Errorf("open tts engine: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	chunks, errs := synth.Synthesize(ctx, tts.SynthRequest{RequestID: requestID, Text: text, Voice: s.voice})
	buffers, err := tts.Drain(ctx, chunks, errs)
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	pcm, channels, err := s.concat(buffers)
	if err != nil {
		return "", err
	}
	return s.writer.Write(pcm, channels)
}

// concat joins the buffers in production order. Every buffer must match the
// fixed output rate and the channel count of the first one.
func (s *Synthesizer) concat(buffers []tts.SynthChunk) ([]byte, int, error) {
	if len(buffers) == 0 {
		return nil, 0, ErrEmptySynthesis
	}
	channels := buffers[0].Channels
	if channels <= 0 {
		channels = 1
	}
	size := 0
	for i, b := range buffers {
		if b.SampleRate != 0 && b.SampleRate != s.sampleRate {
			return nil, 0, fmt.Errorf("chunk %d: sample rate %d, want %d", i, b.SampleRate, s.sampleRate)
		}
		if c := b.Channels; c != 0 && c != channels {
			return nil, 0, fmt.Errorf("chunk %d: %d channels, want %d", i, c, channels)
		}
		if len(b.PCM)%(2*channels) != 0 {
			return nil, 0, fmt.Errorf("chunk %d: pcm not frame aligned", i)
		}
		size += len(b.PCM)
	}
	if size == 0 {
		return nil, 0, ErrEmptySynthesis
	}
	pcm := make([]byte, 0, size)
	for _, b := range buffers {
		pcm = append(pcm, b.PCM...)
	}
	return pcm, channels, nil
}
