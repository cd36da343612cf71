// Package normalize folds free text for comparison and indexing.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Query trims s and collapses internal whitespace runs to one space.
// The result is what gets sent to the catalog.
func Query(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsBlank reports whether s has no non-space characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Fold returns a case- and accent-insensitive form of s.
// "Amélie" and "AMELIE" fold to "amelie"; Turkish dotted and dotless I
// both fold to "i".
func Fold(s string) string {
	s = strings.NewReplacer("İ", "i", "ı", "i").Replace(s)
	s = cases.Fold().String(s)
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
	return Query(s)
}
