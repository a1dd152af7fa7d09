package transcript

import (
	"database/sql"
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
)

// #region recorder
// Recorder writes one session's decisions and phrases through the logging
// provenance writers.
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// Recorder returns a recorder bound to sessionID, which must already exist.
func (s *Store) Recorder(sessionID string) *Recorder {
	return &Recorder{db: s.db, sessionID: sessionID}
}

// SessionID returns the session this recorder writes to.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// RecordDecision logs the gate's decision for frame number seq.
func (r *Recorder) RecordDecision(seq int64, f gate.Frame, d gate.GateDecision) error {
	return logging.LogDecision(r.db, logging.DecisionEntry{
		SessionID: r.sessionID,
		Seq:       seq,
		Word:      f.Word,
		Prob1:     f.Prob1,
		Prob2:     f.Prob2,
		NoSignal:  f.NoSignal,
		FrameAt:   f.At,
		Decision:  DecisionLabel(f, d),
		Reason:    string(d.Reason),
		Streak:    d.Streak,
	})
}

// RecordReset logs a client reset as a frame_log row. The discarded words
// are not stored; replay rebuilds them.
func (r *Recorder) RecordReset(seq int64, at time.Time, _ []string) error {
	return logging.LogDecision(r.db, logging.DecisionEntry{
		SessionID: r.sessionID,
		Seq:       seq,
		FrameAt:   at,
		Decision:  DecisionReset,
		Reason:    ResetReason,
	})
}

// RecordPhrase logs a completed phrase and the response rendered for it.
func (r *Recorder) RecordPhrase(words []string, resp router.Response) error {
	return logging.LogPhrase(r.db, logging.PhraseEntry{
		SessionID: r.sessionID,
		Words:     words,
		Intent:    resp.IntentKey,
		Slots:     resp.Slots,
		Template:  resp.Template,
		Sentence:  resp.Sentence,
	})
}

// #endregion recorder

// frame_log decision labels.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
	DecisionNoSignal = "no_signal"
	DecisionReset    = "reset"

	ResetReason = "client_reset"
)

// DecisionLabel collapses a decision into accepted, rejected or no_signal.
func DecisionLabel(f gate.Frame, d gate.GateDecision) string {
	switch {
	case d.Accepted:
		return DecisionAccepted
	case f.NoSignal:
		return DecisionNoSignal
	default:
		return DecisionRejected
	}
}

// IsReset reports whether the row records a client reset rather than a frame.
func (fr FrameRow) IsReset() bool {
	return fr.Decision == DecisionReset
}

// Frame rebuilds the gate frame a row was logged from.
func (fr FrameRow) Frame() gate.Frame {
	if fr.NoSignal {
		return gate.NoSignalAt(fr.FrameMs)
	}
	return gate.Classification(fr.Word, fr.Prob1, fr.Prob2, fr.FrameMs)
}
