package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loqalabs/podcaster/internal/language"
)

const kokoroReadSize = 32 * 1024

// KokoroOptions configures the Kokoro-FastAPI client.
type KokoroOptions struct {
	Endpoint   string
	Model      string
	SampleRate int
	Channels   int
	Client     *http.Client
}

type kokoroEngine struct {
	opts KokoroOptions
}

// NewKokoroEngine talks to a Kokoro-FastAPI server through its OpenAI
// compatible /v1/audio/speech endpoint, requesting raw PCM.
func NewKokoroEngine(opts KokoroOptions) Engine {
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.Model == "" {
		opts.Model = "kokoro"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 24000
	}
	if opts.Channels <= 0 {
		opts.Channels = 1
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &kokoroEngine{opts: opts}
}

func (e *kokoroEngine) Open(_ context.Context, lang language.Code) (Synthesizer, error) {
	if err := validLanguage(lang); err != nil {
		return nil, err
	}
	if e.opts.Endpoint == "" {
		return nil, errors.New("kokoro endpoint not configured")
	}
	return &kokoroSynth{opts: e.opts, lang: lang}, nil
}

type kokoroSynth struct {
	opts KokoroOptions
	lang language.Code
}

type kokoroRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	Stream         bool   `json:"stream"`
	LangCode       string `json:"lang_code"`
}

func (k *kokoroSynth) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	chunks := make(chan SynthChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := json.Marshal(kokoroRequest{
			Model:          k.opts.Model,
			Input:          req.Text,
			Voice:          req.Voice,
			ResponseFormat: "pcm",
			Stream:         true,
			LangCode:       string(k.lang),
		})
		if err != nil {
			errs <- err
			return
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.opts.Endpoint+"/v1/audio/speech", bytes.NewReader(body))
		if err != nil {
			errs <- err
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := k.opts.Client.Do(httpReq)
		if err != nil {
			errs <- fmt.Errorf("kokoro request: %w", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			errs <- fmt.Errorf("kokoro returned status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
			return
		}

		// Reads are cut on frame boundaries; a trailing partial frame is held
		// back until the next read completes it.
		frame := 2 * k.opts.Channels
		buf := make([]byte, kokoroReadSize)
		var carry []byte
		var pending *SynthChunk
		sequence := 0
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				data := append(carry, buf[:n]...)
				whole := len(data) - len(data)%frame
				carry = append([]byte(nil), data[whole:]...)
				if whole > 0 {
					if pending != nil && !send(ctx, chunks, *pending) {
						errs <- ctx.Err()
						return
					}
					pending = &SynthChunk{
						RequestID:  req.RequestID,
						Sequence:   sequence,
						SampleRate: k.opts.SampleRate,
						Channels:   k.opts.Channels,
						PCM:        append([]byte(nil), data[:whole]...),
					}
					sequence++
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errs <- fmt.Errorf("read kokoro audio: %w", readErr)
				return
			}
		}
		if len(carry) > 0 {
			errs <- fmt.Errorf("kokoro audio ended mid-frame (%d stray bytes)", len(carry))
			return
		}
		if pending != nil {
			pending.Final = true
			if !send(ctx, chunks, *pending) {
				errs <- ctx.Err()
			}
		}
	}()
	return chunks, errs
}
