// Package textclean strips model reasoning markup from generated text.
package textclean

import (
	"regexp"
	"strings"
)

// Non-greedy and dot-matches-newline, so each <think> block ends at its own
// closing tag and an unterminated tag never matches.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Clean removes every <think>...</think> region and trims surrounding whitespace.
//
// Removal repeats until no block is left, since deleting one block can splice
// fragments like "<thi" + "nk>" into a new one. That keeps Clean idempotent.
func Clean(text string) string {
	for {
		next := thinkBlock.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}
