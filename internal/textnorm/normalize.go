// Package textnorm prepares raw clinical text for extraction:
// lowercasing, whitespace collapse, optional diacritic folding and
// medical-acronym expansion. All functions are pure.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, expands medical acronyms, collapses whitespace
// and, unless preserveAccents is set, strips diacritics. The accent
// preserving variant is kept for display and for vocabulary entries
// that rely on accented forms; the folded variant feeds the pattern
// extractor. Blank input yields an empty string.
func Normalize(text string, preserveAccents bool) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = ExpandAcronyms(text)

	if !preserveAccents {
		folded, _, err := transform.String(foldTransformer, text)
		if err == nil {
			text = folded
		}
	}

	return collapseWhitespace(text)
}

// collapseWhitespace squeezes runs of whitespace to single spaces.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Words splits normalized text into word tokens, keeping intra-word
// hyphens ("post-partum" stays one token).
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
