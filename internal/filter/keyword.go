package filter

import (
	"strings"
	"unicode/utf8"
)

// Normalize lowercases text and collapses runs of whitespace into single spaces
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Combine returns the normalized "title description" text used by every check
func Combine(title, description string) string {
	t := Normalize(title)
	d := Normalize(description)
	if d == "" {
		return t
	}
	return t + " " + d
}

// ContainsWord checks if text contains the word (with word boundary awareness).
// Both arguments are expected to be lowercase.
func ContainsWord(text, word string) bool {
	return IndexWord(text, word) >= 0
}

// IndexWord returns the byte offset of the first occurrence of word in text
// that is not part of a longer word, or -1. Multi-word phrases match as
// plain substrings.
func IndexWord(text, word string) int {
	if word == "" {
		return -1
	}
	if strings.Contains(word, " ") {
		return strings.Index(text, word)
	}

	// This prevents "it" from matching "with"
	for off := 0; off+len(word) <= len(text); {
		i := strings.Index(text[off:], word)
		if i == -1 {
			return -1
		}
		idx := off + i
		end := idx + len(word)
		if (idx == 0 || !isWordChar(text[idx-1])) && (end == len(text) || !isWordChar(text[end])) {
			return idx
		}
		off = idx + 1
	}
	return -1
}

// isWordChar returns true for alphanumeric characters
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// KeywordContext returns a snippet of text around the first standalone
// occurrence of keyword, elided with "..." where it was cut
func KeywordContext(text, keyword string, contextSize int) (string, bool) {
	textLower := strings.ToLower(text)
	if len(textLower) != len(text) {
		// lowercasing changed byte offsets; cut from the lowered copy instead
		text = textLower
	}
	kw := strings.ToLower(keyword)

	idx := IndexWord(textLower, kw)
	if idx == -1 {
		return "", false
	}

	start := max(0, idx-contextSize)
	end := min(len(text), idx+len(kw)+contextSize)
	// keep cuts on rune boundaries
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	context := text[start:end]
	if start > 0 {
		context = "..." + context
	}
	if end < len(text) {
		context = context + "..."
	}
	return context, true
}
