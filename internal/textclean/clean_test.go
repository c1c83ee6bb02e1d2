package textclean

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"multiline block", "<think>anything spanning\nmultiple lines</think> keep me ", "keep me"},
		{"no tags", "no tags here", "no tags here"},
		{"whitespace", "  spaced  ", "spaced"},
		{"two blocks", "<think>a</think>one <think>b</think>two", "one two"},
		{"non greedy", "<think>a</think>keep<think>b</think>", "keep"},
		{"unterminated", "<think>never closed\nstill here", "<think>never closed\nstill here"},
		{"stray close", "text</think>", "text</think>"},
		{"empty block", "<think></think>", ""},
		{"spliced", "<thi<think>x</think>nk>hidden</think>shown", "shown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"<think>x</think>",
		" <think>a\nb</think>  body \n",
		"<think><think>nested</think></think>tail",
		"<thi<think>x</think>nk>y</think>z",
		"<think>open only",
		"plain",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
