package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to transcript db")
	last := flag.Int("last", 20, "show N most recent sessions or phrases")
	session := flag.String("session", "", "show one session's frames and phrases")
	phrases := flag.Bool("phrases", false, "list recent phrases across sessions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/transcript.db [--last N] [--session id | --phrases] [--json]")
		os.Exit(2)
	}

	store, err := transcript.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *session != "":
		err = runDetailMode(store, *session, *jsonOut)
	case *phrases:
		err = runPhrasesMode(store, *last, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string `json:"session_id"`
	StartedAt string `json:"started_at"`
	Label     string `json:"label,omitempty"`
	Frames    int    `json:"frames"`
	Accepted  int    `json:"accepted"`
	Phrases   int    `json:"phrases"`
}

func runListMode(store *transcript.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, 0, len(sessions))
	for _, s := range sessions {
		frames, err := store.Frames(s.SessionID)
		if err != nil {
			return err
		}
		phrases, err := store.ListPhrases(s.SessionID, len(frames)+1)
		if err != nil {
			return err
		}
		row := listRow{
			SessionID: s.SessionID,
			StartedAt: s.StartedAt.Format(time.RFC3339),
			Label:     s.Label,
			Frames:    len(frames),
			Phrases:   len(phrases),
		}
		for _, f := range frames {
			if f.Decision == "accepted" {
				row.Accepted++
			}
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-36s  %-20s  %7s  %8s  %7s  %s\n", "Session", "Started", "Frames", "Accepted", "Phrases", "Label")
	fmt.Printf("%-36s+-%-20s+-%7s+-%8s+-%7s+-%s\n", strings.Repeat("-", 36), strings.Repeat("-", 20), "-------", "--------", "-------", "-----")
	for _, r := range rows {
		fmt.Printf("%-36s  %-20s  %7d  %8d  %7d  %s\n", r.SessionID, r.StartedAt, r.Frames, r.Accepted, r.Phrases, r.Label)
	}
	return nil
}

// #endregion list-mode

// #region phrases-mode

type phraseOut struct {
	SessionID string            `json:"session_id"`
	Words     []string          `json:"words"`
	Intent    string            `json:"intent"`
	Slots     map[string]string `json:"slots"`
	Template  string            `json:"template"`
	Sentence  string            `json:"sentence"`
	CreatedAt string            `json:"created_at"`
}

func toPhraseOut(rows []transcript.PhraseRow) []phraseOut {
	out := make([]phraseOut, len(rows))
	for i, p := range rows {
		out[i] = phraseOut{
			SessionID: p.SessionID,
			Words:     p.Words,
			Intent:    p.Intent,
			Slots:     p.Slots,
			Template:  p.Template,
			Sentence:  p.Sentence,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

func runPhrasesMode(store *transcript.Store, last int, jsonOut bool) error {
	rows, err := store.ListPhrases("", last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(toPhraseOut(rows))
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no phrases found")
		return nil
	}
	for _, p := range rows {
		fmt.Printf("%s  %-24s  %-14s  %s\n", p.CreatedAt.Format(time.RFC3339), strings.Join(p.Words, " "), p.Intent, p.Sentence)
	}
	return nil
}

// #endregion phrases-mode

// #region detail-mode

type detailOut struct {
	SessionID string                `json:"session_id"`
	StartedAt string                `json:"started_at"`
	Label     string                `json:"label,omitempty"`
	Config    json.RawMessage       `json:"config,omitempty"`
	Frames    []transcript.FrameRow `json:"frames"`
	Phrases   []phraseOut           `json:"phrases"`
}

func runDetailMode(store *transcript.Store, sessionID string, jsonOut bool) error {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	frames, err := store.Frames(sessionID)
	if err != nil {
		return err
	}
	phrases, err := store.ListPhrases(sessionID, len(frames)+1)
	if err != nil {
		return err
	}

	out := detailOut{
		SessionID: sess.SessionID,
		StartedAt: sess.StartedAt.Format(time.RFC3339),
		Label:     sess.Label,
		Frames:    frames,
		Phrases:   toPhraseOut(phrases),
	}
	if sess.ConfigJSON != "" {
		out.Config = json.RawMessage(sess.ConfigJSON)
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:  %s\n", out.SessionID)
	fmt.Printf("Started:  %s\n", out.StartedAt)
	if out.Label != "" {
		fmt.Printf("Label:    %s\n", out.Label)
	}
	if sess.ConfigJSON != "" {
		fmt.Printf("Config:   %s\n", sess.ConfigJSON)
	}

	fmt.Printf("\n%-6s  %-14s  %6s  %6s  %-10s  %-16s  %s\n", "Seq", "Word", "P1", "P2", "Decision", "Reason", "Streak")
	for _, f := range frames {
		word := f.Word
		if f.NoSignal {
			word = "-"
		}
		fmt.Printf("%-6d  %-14s  %6.2f  %6.2f  %-10s  %-16s  %d\n", f.Seq, word, f.Prob1, f.Prob2, f.Decision, f.Reason, f.Streak)
	}

	fmt.Printf("\nPhrases (newest first):\n")
	for _, p := range phrases {
		fmt.Printf("  %-24s  %-14s  %s\n", strings.Join(p.Words, " "), p.Intent, p.Sentence)
	}
	return nil
}

// #endregion detail-mode

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
