package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/loqalabs/podcaster/internal/history"
	"github.com/loqalabs/podcaster/internal/language"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	StatusEmptyInput = "Please enter some text to generate audio."
	StatusSuccess    = "Audio generated successfully!"
	summarizedSuffix = " (Summarized text used)"
)

// Request is one user action: a catalog language label, the text and
// whether to summarize it first.
type Request struct {
	Language  string `json:"language"`
	Text      string `json:"text"`
	Summarize bool   `json:"summarize"`
}

// Result is what the caller shows the user. Path is empty on failure and Err
// carries the failure for callers that need to tell causes apart.
type Result struct {
	ID         string `json:"id"`
	Path       string `json:"audio_path,omitempty"`
	Status     string `json:"status"`
	Summarized bool   `json:"summarized"`
	Err        error  `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

type Summarizer interface {
	Summarize(ctx context.Context, requestID, text string) (string, error)
}

type AudioSynthesizer interface {
	Synthesize(ctx context.Context, requestID string, lang language.Code, text string) (string, error)
}

type Recorder interface {
	Append(ctx context.Context, e history.Entry) error
}

// Service runs the generation pipeline. Requests are served one at a time
// because every generation rewrites the same output directory.
type Service struct {
	summarizer Summarizer
	synth      AudioSynthesizer
	recorder   Recorder
	logger     *slog.Logger
	tracer     trace.Tracer
	mu         sync.Mutex
	newID      func() string
	clock      func() time.Time

	generations metric.Int64Counter
	duration    metric.Float64Histogram
}

// New wires the pipeline. recorder may be nil.
func New(summarizer Summarizer, synth AudioSynthesizer, recorder Recorder, logger *slog.Logger) *Service {
	s := &Service{
		summarizer: summarizer,
		synth:      synth,
		recorder:   recorder,
		logger:     logger.With(slog.String("component", "podcast")),
		tracer:     otel.Tracer("github.com/loqalabs/podcaster/podcast"),
		newID:      uuid.NewString,
		clock:      time.Now,
	}
	if err := s.initMetrics(); err != nil {
		s.logger.Warn("failed to initialize metrics", slogError(err))
	}
	return s
}

func (s *Service) initMetrics() error {
	meter := otel.Meter("github.com/loqalabs/podcaster/podcast")
	counter, err := meter.Int64Counter("podcaster.generations", metric.WithDescription("Generation requests by outcome"))
	if err != nil {
		return err
	}
	hist, err := meter.Float64Histogram("podcaster.generation.duration", metric.WithDescription("Generation latency"), metric.WithUnit("s"))
	if err != nil {
		return err
	}
	s.generations = counter
	s.duration = hist
	return nil
}

// Generate never returns an error; every failure is folded into the Result.
func (s *Service) Generate(ctx context.Context, req Request) Result {
	id := s.newID()
	if strings.TrimSpace(req.Text) == "" {
		return Result{ID: id, Status: StatusEmptyInput, Err: ErrEmptyInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The caller may have gone away while queued behind another generation.
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("generation abandoned: %w", err)
		s.logger.Info("generation abandoned before start", slog.String("id", id), slogError(err))
		return Result{ID: id, Status: "Error: " + err.Error(), Err: err}
	}

	ctx, span := s.tracer.Start(ctx, "podcast.generate", trace.WithAttributes(
		attribute.String("podcast.id", id),
		attribute.String("podcast.language", req.Language),
		attribute.Bool("podcast.summarize", req.Summarize),
		attribute.Int("podcast.text_chars", utf8.RuneCountInString(req.Text)),
	))
	defer span.End()

	start := s.clock()
	code, path, err := s.run(ctx, id, req)
	elapsed := s.clock().Sub(start)

	res := Result{ID: id, Summarized: req.Summarize}
	if err != nil {
		res.Err = err
		res.Status = "Error: " + err.Error()
		res.Summarized = false
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		s.logger.Warn("generation failed",
			slog.String("id", id),
			slog.String("kind", Kind(err)),
			slogError(err))
	} else {
		res.Path = path
		res.Status = StatusSuccess
		if req.Summarize {
			res.Status += summarizedSuffix
		}
		s.logger.Info("generation complete",
			slog.String("id", id),
			slog.String("path", path),
			slog.Bool("summarized", req.Summarize),
			slog.Duration("latency", elapsed))
	}

	s.observe(ctx, req, res, elapsed)
	s.record(ctx, req, res, code, elapsed)
	return res
}

func (s *Service) run(ctx context.Context, id string, req Request) (language.Code, string, error) {
	code, err := language.Resolve(req.Language)
	if err != nil {
		return "", "", err
	}

	text := req.Text
	if req.Summarize {
		sctx, span := s.tracer.Start(ctx, "podcast.summarize")
		text, err = s.summarizer.Summarize(sctx, id, req.Text)
		endSpan(span, err)
		if err != nil {
			return code, "", fmt.Errorf("%w: %w", ErrSummarization, err)
		}
	}

	sctx, span := s.tracer.Start(ctx, "podcast.synthesize", trace.WithAttributes(attribute.String("podcast.lang_code", string(code))))
	path, err := s.synth.Synthesize(sctx, id, code, text)
	endSpan(span, err)
	if err != nil {
		return code, "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	return code, path, nil
}

func (s *Service) observe(ctx context.Context, req Request, res Result, elapsed time.Duration) {
	if s.generations == nil {
		return
	}
	outcome := "success"
	if !res.OK() {
		outcome = Kind(res.Err)
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("summarized", req.Summarize),
		attribute.String("language", req.Language),
	)
	s.generations.Add(ctx, 1, attrs)
	s.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (s *Service) record(ctx context.Context, req Request, res Result, code language.Code, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	entry := history.Entry{
		ID:         res.ID,
		Language:   req.Language,
		Code:       string(code),
		Summarized: res.Summarized,
		Succeeded:  res.OK(),
		Status:     res.Status,
		Path:       res.Path,
		ErrorKind:  Kind(res.Err),
		TextChars:  utf8.RuneCountInString(req.Text),
		Duration:   elapsed,
	}
	if err := s.recorder.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to record generation", slog.String("id", res.ID), slogError(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
