package util

import "testing"

func TestStripControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Nickelback, Crocs", want: "Nickelback, Crocs"},
		{name: "control chars", input: "Croc\x00s\x07 rule\x7F", want: "Crocs rule"},
		{name: "keeps layout whitespace", input: "  Marvel\n\n movies\t\r\n", want: "  Marvel\n\n movies\t\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripControlChars(tt.input); got != tt.want {
				t.Fatalf("StripControlChars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCutRunes(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{input: "가나다라마", max: 3, want: "가나다"},
		{input: "abc", max: 3, want: "abc"},
		{input: "abc def", max: 0, want: "abc def"},
		{input: "  padded  ", max: 4, want: "  pa"},
	}
	for _, tt := range tests {
		if got := CutRunes(tt.input, tt.max); got != tt.want {
			t.Fatalf("CutRunes(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("you look like\na\r\nthumb"); got != "you look like a thumb" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("hello world", 5); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Preview("hi", 5); got != "hi" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Preview("🔥🔥🔥", 2); got != "🔥🔥" {
		t.Fatalf("preview split a rune: %q", got)
	}
}
