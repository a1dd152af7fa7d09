package gate

import "time"

// #region frame
// Frame is one inference cycle's output: either a classification (top-1 label
// with its top-two probabilities) or a no-signal marker.
type Frame struct {
	Word     string
	Prob1    float32 // top-1 probability
	Prob2    float32 // top-2 probability, <= Prob1
	NoSignal bool
	At       time.Time
}

// Classification builds a classification frame from a millisecond timestamp.
func Classification(word string, prob1, prob2 float32, tsMs int64) Frame {
	return Frame{Word: word, Prob1: prob1, Prob2: prob2, At: time.UnixMilli(tsMs)}
}

// NoSignalAt builds a no-signal frame from a millisecond timestamp.
func NoSignalAt(tsMs int64) Frame {
	return Frame{NoSignal: true, At: time.UnixMilli(tsMs)}
}

// #endregion frame

// #region reason
// Reason names why a frame was or was not accepted.
type Reason string

const (
	ReasonAccepted      Reason = "accepted"
	ReasonCooldown      Reason = "cooldown"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonLowMargin     Reason = "low_margin"
	ReasonUnstable      Reason = "unstable"
	ReasonRepeatGap     Reason = "repeat_gap"
	ReasonNoSignal      Reason = "no_signal"
)

// #endregion reason

// #region gate-config
// GateConfig holds the acceptance thresholds. Fixed at construction.
type GateConfig struct {
	ConfThr      float32       `yaml:"conf_thr" json:"conf_thr"`             // min top-1 probability
	MarginThr    float32       `yaml:"margin_thr" json:"margin_thr"`         // min top1 - top2
	StableN      int           `yaml:"stable_n" json:"stable_n"`             // consecutive qualifying frames
	Cooldown     time.Duration `yaml:"cooldown" json:"cooldown"`             // global quiet period after any acceptance
	MinGapRepeat time.Duration `yaml:"min_gap_repeat" json:"min_gap_repeat"` // per-word re-acceptance gap
}

// DefaultGateConfig returns the tuning used on device.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		ConfThr:      0.55,
		MarginThr:    0.12,
		StableN:      3,
		Cooldown:     750 * time.Millisecond,
		MinGapRepeat: 1500 * time.Millisecond,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the outcome of ingesting one frame.
type GateDecision struct {
	Accepted bool
	Word     string // accepted word; empty unless Accepted
	Reason   Reason
	Streak   int     // streak count after this frame
	Margin   float32 // top1 - top2 (0 for no-signal frames)
}

// #endregion gate-decision
