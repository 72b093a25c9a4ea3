package stage

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into a base letter plus marks.
var specialChars = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"ß", "ss",
	"œ", "oe", "Œ", "OE",
	"þ", "th", "Þ", "TH",
	"ð", "dh", "Ð", "DH",
)

// StripAccents removes diacritics so "Pogačar" reads as "Pogacar".
func StripAccents(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return specialChars.Replace(out), nil
}

func normaliseAnswer(s string) (string, error) {
	s, err := StripAccents(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " ")), nil
}

// AreNormEqual compares a guess with an answer ignoring accents, case,
// surrounding space and underscores used in place of spaces.
func AreNormEqual(a, b string) bool {
	na, err := normaliseAnswer(a)
	if err != nil {
		return false
	}
	nb, err := normaliseAnswer(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(na, nb)
}
