package tts

import (
	"context"
	"encoding/binary"
	"math"
	"strings"

	"github.com/loqalabs/podcaster/internal/language"
)

type mockEngine struct {
	sampleRate int
	channels   int
}

// NewMockEngine yields one short tone per sentence, roughly 80ms per word.
func NewMockEngine(sampleRate, channels int) Engine {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if channels <= 0 {
		channels = 1
	}
	return &mockEngine{sampleRate: sampleRate, channels: channels}
}

func (m *mockEngine) Open(_ context.Context, lang language.Code) (Synthesizer, error) {
	if err := validLanguage(lang); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *mockEngine) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	segments := splitSentences(req.Text)
	chunks := make(chan SynthChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for i, segment := range segments {
			frames := len(strings.Fields(segment)) * m.sampleRate * 80 / 1000
			chunk := SynthChunk{
				RequestID:  req.RequestID,
				Sequence:   i,
				SampleRate: m.sampleRate,
				Channels:   m.channels,
				PCM:        tone(frames, m.channels, m.sampleRate),
				Final:      i == len(segments)-1,
			}
			if !send(ctx, chunks, chunk) {
				errs <- ctx.Err()
				return
			}
		}
	}()
	return chunks, errs
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func tone(frames, channels, sampleRate int) []byte {
	pcm := make([]byte, frames*channels*2)
	for i := 0; i < frames; i++ {
		v := int16(2000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint16(pcm[(i*channels+c)*2:], uint16(v))
		}
	}
	return pcm
}
