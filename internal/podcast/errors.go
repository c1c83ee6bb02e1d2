package podcast

import (
	"context"
	"errors"

	"github.com/loqalabs/podcaster/internal/audio"
	"github.com/loqalabs/podcaster/internal/language"
)

var (
	// ErrEmptyInput means the text was blank after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrSummarization wraps any failure of the summarization step.
	ErrSummarization = errors.New("summarization failed")
	// ErrSynthesis wraps any failure of the speech synthesis step.
	ErrSynthesis = errors.New("synthesis failed")

	ErrUnknownLanguage = language.ErrUnknownLanguage
	ErrEmptySynthesis  = audio.ErrEmptySynthesis
)

// Kind names the failure category of err, or "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrUnknownLanguage):
		return "unknown_language"
	case errors.Is(err, ErrSummarization):
		return "summarization"
	case errors.Is(err, ErrEmptySynthesis):
		return "empty_synthesis"
	case errors.Is(err, ErrSynthesis):
		return "synthesis"
	default:
		return "internal"
	}
}
