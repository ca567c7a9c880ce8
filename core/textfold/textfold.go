// Package textfold folds text for case- and diacritic-insensitive matching.
package textfold

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation maps typographic variants found in the snapshots to ASCII.
var punctuation = map[rune]rune{
	'\u2018': '\'', // left single quotation mark
	'\u2019': '\'', // right single quotation mark
	'\u02bc': '\'', // modifier letter apostrophe
	'\u201c': '"',
	'\u201d': '"',
	'\u2010': '-',
	'\u2011': '-', // non-breaking hyphen
	'\u00a0': ' ',
}

func newTransformer() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if m, ok := punctuation[r]; ok {
				return m
			}
			return r
		}),
		norm.NFC,
	)
}

// RemoveDiacritics strips combining marks from s, so "Bahá’u’lláh" becomes
// "Baha'u'llah". Case is preserved.
func RemoveDiacritics(s string) string {
	out, _, err := transform.String(newTransformer(), s)
	if err != nil {
		return s
	}
	return out
}

// Fold removes diacritics and lowercases s.
func Fold(s string) string {
	return strings.ToLower(RemoveDiacritics(s))
}

// Contains reports whether needle occurs in haystack after folding both.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Equal reports whether a and b fold to the same string.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

var word = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Words splits s into folded words. Apostrophes and hyphens separate words.
func Words(s string) []string {
	return word.FindAllString(Fold(s), -1)
}

// PathPart folds one segment of a URL path, where '-' stands for a space.
func PathPart(s string) string {
	return Fold(strings.ReplaceAll(s, "-", " "))
}
