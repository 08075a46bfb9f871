package validation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText collapses runs of whitespace into single spaces, trims the ends
// and strips combining marks ("João" becomes "Joao").
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeUpper is NormalizeText followed by upper-casing, the stored form of
// holder names and addresses.
func NormalizeUpper(s string) string {
	return strings.ToUpper(NormalizeText(s))
}
