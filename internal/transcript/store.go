// Package transcript records sessions, per-frame gate decisions and completed
// phrases in SQLite so they can be inspected, exported and replayed.
package transcript

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	config_json TEXT,
	label       TEXT
);

CREATE TABLE IF NOT EXISTS frame_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	word        TEXT,
	prob1       REAL NOT NULL,
	prob2       REAL NOT NULL,
	no_signal   INTEGER NOT NULL,
	frame_ms    INTEGER NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT,
	streak      INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
CREATE INDEX IF NOT EXISTS idx_frame_log_session ON frame_log(session_id, seq);

CREATE TABLE IF NOT EXISTS phrases (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	words_json  TEXT NOT NULL,
	intent      TEXT NOT NULL,
	slots_json  TEXT NOT NULL,
	template    TEXT NOT NULL,
	sentence    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
CREATE INDEX IF NOT EXISTS idx_phrases_created ON phrases(created_at DESC);
`

// #endregion schema

// #region store-struct
// Store manages recorded sessions in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the provenance writers in logging.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region sessions
// StartSession registers a new session and returns its ID.
func (s *Store) StartSession(configJSON, label string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, started_at, config_json, label) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), nullIfEmpty(configJSON), nullIfEmpty(label),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// GetSession returns one session by ID.
func (s *Store) GetSession(sessionID string) (Session, error) {
	var sess Session
	var started string
	var cfg, label sql.NullString
	err := s.db.QueryRow(
		`SELECT session_id, started_at, config_json, label FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&sess.SessionID, &started, &cfg, &label)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	sess.ConfigJSON = cfg.String
	sess.Label = label.String
	return sess, nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, started_at, config_json, label FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started string
		var cfg, label sql.NullString
		if err := rows.Scan(&sess.SessionID, &started, &cfg, &label); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		sess.ConfigJSON = cfg.String
		sess.Label = label.String
		out = append(out, sess)
	}
	return out, rows.Err()
}

// SessionIDs returns every recorded session ID, oldest first.
func (s *Store) SessionIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT session_id FROM sessions ORDER BY started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion sessions

// #region frames
// Frames returns a session's logged decisions in frame order.
func (s *Store) Frames(sessionID string) ([]FrameRow, error) {
	rows, err := s.db.Query(
		`SELECT seq, word, prob1, prob2, no_signal, frame_ms, decision, reason, streak
		 FROM frame_log WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []FrameRow
	for rows.Next() {
		var fr FrameRow
		var word, reason sql.NullString
		var noSignal int
		if err := rows.Scan(&fr.Seq, &word, &fr.Prob1, &fr.Prob2, &noSignal, &fr.FrameMs, &fr.Decision, &reason, &fr.Streak); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		fr.Word = word.String
		fr.Reason = reason.String
		fr.NoSignal = noSignal != 0
		out = append(out, fr)
	}
	return out, rows.Err()
}

// #endregion frames

// #region phrases
// ListPhrases returns up to limit phrases, newest first. An empty sessionID
// lists across sessions.
func (s *Store) ListPhrases(sessionID string, limit int) ([]PhraseRow, error) {
	query := `SELECT id, session_id, words_json, intent, slots_json, template, sentence, created_at FROM phrases`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}
	defer rows.Close()

	var out []PhraseRow
	for rows.Next() {
		var pr PhraseRow
		var wordsJSON, slotsJSON, created string
		if err := rows.Scan(&pr.ID, &pr.SessionID, &wordsJSON, &pr.Intent, &slotsJSON, &pr.Template, &pr.Sentence, &created); err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		if err := json.Unmarshal([]byte(wordsJSON), &pr.Words); err != nil {
			return nil, fmt.Errorf("unmarshal words: %w", err)
		}
		if err := json.Unmarshal([]byte(slotsJSON), &pr.Slots); err != nil {
			return nil, fmt.Errorf("unmarshal slots: %w", err)
		}
		pr.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, pr)
	}
	return out, rows.Err()
}

// #endregion phrases

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
