package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// CollapseWhitespace folds every whitespace run (newlines included) into one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// StripControlChars removes control characters. Tab, newline and carriage return are kept.
func StripControlChars(s string) string {
	return controlCharsPattern.ReplaceAllString(s, "")
}

// CutRunes returns at most maxRunes runes of s without splitting a rune.
// maxRunes <= 0 disables the cut.
func CutRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}

// Preview returns at most n runes of s for log fields.
func Preview(s string, n int) string {
	return CutRunes(s, n)
}
