// Package eval scores a replayed session against its expected words,
// phrases and intents.
package eval

import (
	"fmt"
	"slices"
)

// #region eval-harness
// EvalHarness scores replay outcomes against expectations.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run compares actual against expected. Intents are only checked when
// expected lists them.
func (h *EvalHarness) Run(expected, actual Outcome) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	// 1. Word recall and precision over the accepted-word multiset
	matched := multisetOverlap(expected.Accepted, actual.Accepted)
	recall := ratio(matched, len(expected.Accepted))
	precision := ratio(matched, len(actual.Accepted))

	recallPass := recall >= h.config.MinWordRecall
	metrics = append(metrics, EvalMetric{Name: "word_recall", Value: recall, Pass: recallPass})
	if !recallPass {
		failReasons = append(failReasons, fmt.Sprintf("word recall %.3f below %.3f", recall, h.config.MinWordRecall))
	}

	precisionPass := precision >= h.config.MinWordPrecision
	metrics = append(metrics, EvalMetric{Name: "word_precision", Value: precision, Pass: precisionPass})
	if !precisionPass {
		failReasons = append(failReasons, fmt.Sprintf("word precision %.3f below %.3f", precision, h.config.MinWordPrecision))
	}

	// 2. Phrase exact match, position by position
	phraseRate := exactRate(expected.Phrases, actual.Phrases, func(a, b []string) bool { return slices.Equal(a, b) })
	phrasePass := !h.config.RequirePhraseMatch || phraseRate == 1
	metrics = append(metrics, EvalMetric{Name: "phrase_exact", Value: phraseRate, Pass: phrasePass})
	if !phrasePass {
		failReasons = append(failReasons, fmt.Sprintf("phrases differ: expected %d, got %d, %.0f%% exact",
			len(expected.Phrases), len(actual.Phrases), phraseRate*100))
	}

	// 3. Intent match
	if len(expected.Intents) > 0 {
		intentRate := exactRate(expected.Intents, actual.Intents, func(a, b string) bool { return a == b })
		intentPass := intentRate == 1
		metrics = append(metrics, EvalMetric{Name: "intent_match", Value: intentRate, Pass: intentPass})
		if !intentPass {
			failReasons = append(failReasons, fmt.Sprintf("intent match %.3f", intentRate))
		}
	}

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
// multisetOverlap counts words present in both slices, with multiplicity.
func multisetOverlap(a, b []string) int {
	counts := make(map[string]int, len(a))
	for _, w := range a {
		counts[w]++
	}
	n := 0
	for _, w := range b {
		if counts[w] > 0 {
			counts[w]--
			n++
		}
	}
	return n
}

// ratio returns num/den, treating an empty denominator as a perfect score.
func ratio(num, den int) float32 {
	if den == 0 {
		return 1
	}
	return float32(num) / float32(den)
}

// exactRate is the share of positions where want and got agree, over the
// longer of the two lists.
func exactRate[T any](want, got []T, eq func(a, b T) bool) float32 {
	n := max(len(want), len(got))
	if n == 0 {
		return 1
	}
	same := 0
	for i := 0; i < min(len(want), len(got)); i++ {
		if eq(want[i], got[i]) {
			same++
		}
	}
	return float32(same) / float32(n)
}

// #endregion helpers
