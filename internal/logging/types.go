package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the frame_log table: one gate decision.
type DecisionEntry struct {
	SessionID string
	Seq       int64
	Word      string // empty for no-signal frames
	Prob1     float32
	Prob2     float32
	NoSignal  bool
	FrameAt   time.Time // caller-supplied frame timestamp
	Decision  string    // "accepted" | "rejected" | "no_signal"
	Reason    string
	Streak    int
	CreatedAt time.Time
}

// #endregion decision-entry

// #region phrase-entry
// PhraseEntry is a single row in the phrases table.
type PhraseEntry struct {
	SessionID string
	Words     []string
	Intent    string
	Slots     map[string]string
	Template  string
	Sentence  string
	CreatedAt time.Time
}

// #endregion phrase-entry
