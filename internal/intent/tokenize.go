package intent

import (
	"strings"
	"unicode"
)

// #region tokenize

// Tokenize turns a raw gloss into uppercase tokens. Any rune other than a
// letter, digit, hyphen, dollar sign or apostrophe acts as a separator.
func Tokenize(gloss string) []string {
	return strings.FieldsFunc(strings.ToUpper(gloss), func(r rune) bool {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return false
		case r == '-', r == '$', r == '\'':
			return false
		}
		return true
	})
}

// Normalize uppercases already-segmented words, dropping empty ones.
func Normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// #endregion tokenize
