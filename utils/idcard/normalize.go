package idcard

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	lineBreakRe  = regexp.MustCompile(`[\r\n]+`)
	nonLetterRe  = regexp.MustCompile(`[^A-Za-z\s]+`)
)

// normalizeText upper-cases the transcript and collapses all whitespace to single spaces.
func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToUpper(text), " "))
}

// splitLines returns the trimmed, non-empty lines of an OCR transcript.
func splitLines(text string) []string {
	raw := lineBreakRe.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// lettersOnly drops everything but ASCII letters and whitespace, then collapses spaces.
func lettersOnly(s string) string {
	s = nonLetterRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// FormatName title-cases each whitespace-separated word: "ALI  KHAN" -> "Ali Khan".
// Applying it twice gives the same result.
func FormatName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
