package transcript

import "time"

// #region session
// Session is one recorded camera session.
type Session struct {
	SessionID  string
	StartedAt  time.Time
	ConfigJSON string // gate/segmenter config active for the session
	Label      string
}

// #endregion session

// #region frame-row
// FrameRow is one logged gate decision, in frame order.
type FrameRow struct {
	Seq      int64   `json:"seq"`
	Word     string  `json:"word,omitempty"`
	Prob1    float32 `json:"prob1"`
	Prob2    float32 `json:"prob2"`
	NoSignal bool    `json:"no_signal,omitempty"`
	FrameMs  int64   `json:"t"`
	Decision string  `json:"decision"`
	Reason   string  `json:"reason,omitempty"`
	Streak   int     `json:"streak"`
}

// #endregion frame-row

// #region phrase-row
// PhraseRow is one completed phrase with its rendered sentence.
type PhraseRow struct {
	ID        int64
	SessionID string
	Words     []string
	Intent    string
	Slots     map[string]string
	Template  string
	Sentence  string
	CreatedAt time.Time
}

// #endregion phrase-row
