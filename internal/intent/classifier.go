// Package intent maps a sign token sequence to an intent key and a set of
// named slots. Everything here is pure and safe for concurrent use.
package intent

// #region classify

// Classify returns the intent of the earliest token that matches a trigger.
// Position decides, not trigger order: in [THANKS WHERE] thanks wins.
// Returns Unknown when nothing matches.
func Classify(tokens []string) string {
	for _, tok := range tokens {
		if key, ok := triggerFor(tok); ok {
			return key
		}
	}
	return Unknown
}

func triggerFor(tok string) (string, bool) {
	for _, tr := range triggers {
		for _, t := range tr.tokens {
			if t == tok {
				return tr.intent, true
			}
		}
	}
	return "", false
}

// #endregion classify
