package templates

import (
	"regexp"
)

// #region render

var placeholderRe = regexp.MustCompile(`\{([A-Z_]+)\}`)

// Placeholders returns the keys referenced by t, in order of appearance.
func Placeholders(t string) []string {
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t, -1) {
		keys = append(keys, m[1])
	}
	return keys
}

// MissingPlaceholders returns the keys referenced by t that slots lacks.
func MissingPlaceholders(t string, slots map[string]string) []string {
	var missing []string
	for _, key := range Placeholders(t) {
		if _, ok := slots[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Render substitutes every {KEY} with slots[KEY] verbatim. Unknown keys are
// left as-is, braces included. Substituted values are not rescanned.
func Render(t string, slots map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(t, func(m string) string {
		if v, ok := slots[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// #endregion render
