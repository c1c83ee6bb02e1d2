package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLanguage is returned when a label is not part of the catalog.
var ErrUnknownLanguage = errors.New("unknown language")

// Code is the single-letter language code understood by the synthesis engine.
type Code string

// Entry pairs a display label with its engine code.
type Entry struct {
	Label string `json:"label"`
	Code  Code   `json:"code"`
}

// The first entry is the default selection.
var catalog = []Entry{
	{Label: "🇺🇸 American English", Code: "a"},
	{Label: "🇬🇧 British English", Code: "b"},
	{Label: "🇪🇸 Spanish", Code: "e"},
	{Label: "🇫🇷 French", Code: "f"},
	{Label: "🇮🇳 Hindi", Code: "h"},
	{Label: "🇮🇹 Italian", Code: "i"},
	{Label: "🇯🇵 Japanese", Code: "j"},
	{Label: "🇧🇷 Brazilian Portuguese", Code: "p"},
	{Label: "🇨🇳 Mandarin Chinese", Code: "z"},
}

// Entries returns a copy of the catalog in display order.
func Entries() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Labels returns the display labels in catalog order.
func Labels() []string {
	labels := make([]string, 0, len(catalog))
	for _, e := range catalog {
		labels = append(labels, e.Label)
	}
	return labels
}

// Default returns the label preselected in the UI.
func Default() string {
	return catalog[0].Label
}

// Resolve maps a label to its engine code. Besides the exact display label it
// accepts the label without its flag prefix (case-insensitive) and the bare code.
func Resolve(label string) (Code, error) {
	for _, e := range catalog {
		if e.Label == label {
			return e.Code, nil
		}
	}
	needle := strings.TrimSpace(label)
	if needle != "" {
		for _, e := range catalog {
			if strings.EqualFold(plainName(e.Label), needle) || string(e.Code) == needle {
				return e.Code, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, label)
}

// plainName strips the leading flag emoji from a display label.
func plainName(label string) string {
	if _, rest, ok := strings.Cut(label, " "); ok {
		return rest
	}
	return label
}
