package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/loqalabs/podcaster/internal/language"
	"github.com/loqalabs/podcaster/internal/podcast"
	"github.com/loqalabs/podcaster/internal/protocol"
	"golang.org/x/time/rate"
)

const maxRequestBytes = 4 << 20

type languagesResponse struct {
	Default   string           `json:"default"`
	Languages []language.Entry `json:"languages"`
}

// API serves the generation endpoints and the produced audio files.
type API struct {
	gen      Generator
	audioDir string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewAPI builds the handlers. requestsPerMinute caps generation requests;
// zero means unlimited.
func NewAPI(gen Generator, audioDir string, requestsPerMinute int, log *slog.Logger) *API {
	a := &API{
		gen:      gen,
		audioDir: audioDir,
		logger:   log.With(slog.String("component", "http-api")),
	}
	if requestsPerMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return a
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/languages", a.handleLanguages)
	mux.HandleFunc("POST /api/generate", a.handleGenerate)
	mux.HandleFunc("GET /audio/{name}", a.handleAudio)
}

func (a *API) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Default: language.Default(), Languages: language.Entries()})
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if a.limiter != nil && !a.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, protocol.GenerateReply{Status: "Error: too many requests", ErrorKind: "rate_limited"})
		return
	}

	var req protocol.GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		a.logger.Warn("failed to decode generation request", slogError(err))
		writeJSON(w, http.StatusBadRequest, protocol.GenerateReply{Status: "Error: invalid request", ErrorKind: "invalid_request"})
		return
	}
	if req.Language == "" {
		req.Language = language.Default()
	}

	res := a.gen.Generate(r.Context(), toRequest(req))
	writeJSON(w, statusFor(res.Err), toReply(res))
}

func (a *API) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".wav" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, filepath.Join(a.audioDir, name))
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, podcast.ErrEmptyInput), errors.Is(err, podcast.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, podcast.ErrEmptySynthesis):
		return http.StatusUnprocessableEntity
	case errors.Is(err, podcast.ErrSummarization), errors.Is(err, podcast.ErrSynthesis):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
