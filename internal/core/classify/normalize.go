// Package classify holds the pure text-processing core of the intake
// pipeline: normalization, date extraction, date role assignment and
// permit-type detection. Everything here is deterministic and side-effect
// free; the orchestrator calls it once recognized text is available.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases, strips diacritics and punctuation, and collapses
// whitespace, so "Resolución" and "resolucion" compare equal. Idempotent.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = stripCombiningMarks(norm.NFD.String(s))
	s = reNonWord.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripCombiningMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
