package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes one gate decision to the frame_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO frame_log (session_id, seq, word, prob1, prob2, no_signal, frame_ms, decision, reason, streak, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Seq,
		nullIfEmpty(entry.Word),
		entry.Prob1,
		entry.Prob2,
		boolToInt(entry.NoSignal),
		entry.FrameAt.UnixMilli(),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.Streak,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region log-phrase
// LogPhrase writes a completed phrase and the sentence rendered for it.
func LogPhrase(db *sql.DB, entry PhraseEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	wordsJSON, err := json.Marshal(entry.Words)
	if err != nil {
		return fmt.Errorf("marshal words: %w", err)
	}
	slotsJSON, err := json.Marshal(entry.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO phrases (session_id, words_json, intent, slots_json, template, sentence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		string(wordsJSON),
		entry.Intent,
		string(slotsJSON),
		entry.Template,
		entry.Sentence,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log phrase: %w", err)
	}
	return nil
}

// #endregion log-phrase

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
