package utils

import (
	"strings"
	"unicode/utf8"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CompressAllWhitespace flattens s onto one line with single spaces.
func CompressAllWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CompressWhitespacePreserveNewlines collapses runs of spaces and tabs on
// each line but keeps the line structure, including blank lines.
func CompressWhitespacePreserveNewlines(s string) string {
	lines := strings.Split(lineEndings.Replace(s), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// Truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}

	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
