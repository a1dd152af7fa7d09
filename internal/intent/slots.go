package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// #region slot-keys
const (
	SlotInterrogative = "INTERROGATIVE"
	SlotDirection     = "DIRECTION"
	SlotPlace         = "PLACE"
	SlotName          = "NAME"
	SlotNoun          = "NOUN"
)

// Slots maps a slot key to its rendered value.
type Slots map[string]string

// #endregion slot-keys

// #region extract

// ExtractSlots fills slots from independent first-match dictionary passes,
// then falls back to leftover content tokens for PLACE (location intents
// only) and NOUN.
func ExtractSlots(tokens []string, intentKey string) Slots {
	slots := Slots{}

	if v, ok := firstMatch(tokens, interrogatives); ok {
		slots[SlotInterrogative] = v
	}
	if v, ok := firstMatch(tokens, directions); ok {
		slots[SlotDirection] = v
	}
	if v, ok := firstMatch(tokens, places); ok {
		slots[SlotPlace] = v
	}
	if v, ok := nameAfter(tokens); ok {
		slots[SlotName] = v
	}
	if v, ok := firstMatch(tokens, nouns); ok {
		slots[SlotNoun] = v
	}

	content := ContentTokens(tokens)

	// The first content token may feed both PLACE and NOUN.
	if intentKey == AskLocation || intentKey == AskDirections {
		if _, ok := slots[SlotPlace]; !ok && len(content) > 0 {
			slots[SlotPlace] = "the " + strings.ToLower(content[0])
		}
	}

	if _, ok := slots[SlotNoun]; !ok && len(content) > 0 {
		if len(content) >= 2 {
			slots[SlotNoun] = strings.ToLower(content[0]) + " " + strings.ToLower(content[1])
		} else {
			slots[SlotNoun] = strings.ToLower(content[0])
		}
	}

	return slots
}

// ContentTokens returns tokens that are not signal words, stop words,
// interrogatives, directions or places, in original order.
func ContentTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if signalWords[t] || stopWords[t] {
			continue
		}
		if _, ok := interrogatives[t]; ok {
			continue
		}
		if _, ok := directions[t]; ok {
			continue
		}
		if _, ok := places[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// #endregion extract

// #region helpers

func firstMatch(tokens []string, dict map[string]string) (string, bool) {
	for _, t := range tokens {
		if v, ok := dict[t]; ok {
			return v, true
		}
	}
	return "", false
}

// nameAfter takes the token following NAME, so "MY NAME JOHN" yields John.
func nameAfter(tokens []string) (string, bool) {
	if idx := indexOf(tokens, "NAME"); idx >= 0 && idx+1 < len(tokens) {
		return pretty(tokens[idx+1]), true
	}
	return "", false
}

func indexOf(tokens []string, tok string) int {
	for i, t := range tokens {
		if t == tok {
			return i
		}
	}
	return -1
}

// pretty lowercases a token and capitalizes its first letter.
func pretty(tok string) string {
	lower := strings.ToLower(tok)
	r, size := utf8.DecodeRuneInString(lower)
	if r == utf8.RuneError {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}

// #endregion helpers
