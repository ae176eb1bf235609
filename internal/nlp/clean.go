// Package nlp holds the text normalization, language detection and
// sentiment classification used on article bodies.
package nlp

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`http\S+`)
	disallowedPattern = regexp.MustCompile(`[^a-zA-Z0-9\x{0600}-\x{06FF}\x{0400}-\x{04FF}\s]`)
	spacePattern      = regexp.MustCompile(`\s+`)
	sentenceEnd       = regexp.MustCompile(`[.!?] +`)
)

// CleanText strips URLs, replaces everything outside Latin letters, digits,
// Arabic, Cyrillic and whitespace with a space, then collapses whitespace.
// CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = urlPattern.ReplaceAllString(s, " ")
	s = disallowedPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Sentences splits text after '.', '!' or '?' followed by spaces.
func Sentences(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[0]+1])
		start = loc[1]
	}
	return append(out, text[start:])
}

// Summarize returns the first n sentences of text joined by a space.
func Summarize(text string, n int) string {
	sentences := Sentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " ")
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
