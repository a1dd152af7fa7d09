package eval

// #region eval-config
// EvalConfig holds pass thresholds for a replayed session.
type EvalConfig struct {
	MinWordRecall      float32 `json:"min_word_recall"`      // matched / expected accepted words
	MinWordPrecision   float32 `json:"min_word_precision"`   // matched / actually accepted words
	RequirePhraseMatch bool    `json:"require_phrase_match"` // every phrase equal, in order
}

// DefaultEvalConfig demands an exact reproduction.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinWordRecall:      1.0,
		MinWordPrecision:   1.0,
		RequirePhraseMatch: true,
	}
}

// #endregion eval-config

// #region outcome
// Outcome is what a session produced, or is expected to produce.
type Outcome struct {
	Accepted []string   `json:"accepted"`
	Phrases  [][]string `json:"phrases"`
	Intents  []string   `json:"intents,omitempty"` // one per phrase; optional in expectations
}

// #endregion outcome

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float32
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of scoring one session.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
