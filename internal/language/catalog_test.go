package language

import (
	"errors"
	"testing"
	"unicode/utf8"
)

func TestResolveCatalog(t *testing.T) {
	seen := make(map[Code]string)
	for _, label := range Labels() {
		code, err := Resolve(label)
		if err != nil {
			t.Fatalf("resolve %q: %v", label, err)
		}
		if utf8.RuneCountInString(string(code)) != 1 {
			t.Fatalf("expected single character code for %q, got %q", label, code)
		}
		if prev, ok := seen[code]; ok {
			t.Fatalf("code %q shared by %q and %q", code, prev, label)
		}
		seen[code] = label
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 languages, got %d", len(seen))
	}
}

func TestResolveRequiredLanguages(t *testing.T) {
	want := map[string]Code{
		"American English":     "a",
		"British English":      "b",
		"Spanish":              "e",
		"French":               "f",
		"Hindi":                "h",
		"Italian":              "i",
		"Japanese":             "j",
		"Brazilian Portuguese": "p",
		"Mandarin Chinese":     "z",
	}
	for name, code := range want {
		got, err := Resolve(name)
		if err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
		if got != code {
			t.Fatalf("resolve %q: expected %q, got %q", name, code, got)
		}
	}
}

func TestResolveAliases(t *testing.T) {
	if code, err := Resolve("  japanese "); err != nil || code != "j" {
		t.Fatalf("expected case-insensitive match, got %q, %v", code, err)
	}
	if code, err := Resolve("z"); err != nil || code != "z" {
		t.Fatalf("expected bare code match, got %q, %v", code, err)
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, label := range []string{"Klingon", "", "🇩🇪 German", "x"} {
		if _, err := Resolve(label); !errors.Is(err, ErrUnknownLanguage) {
			t.Fatalf("resolve %q: expected ErrUnknownLanguage, got %v", label, err)
		}
	}
}

func TestDefaultIsFirstLabel(t *testing.T) {
	if Default() != Labels()[0] {
		t.Fatalf("default %q is not the first label", Default())
	}
	entries := Entries()
	entries[0].Code = "q"
	if code, _ := Resolve(Default()); code != "a" {
		t.Fatalf("catalog mutated through Entries copy")
	}
}
