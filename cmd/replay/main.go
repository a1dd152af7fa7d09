package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/replay"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to transcript db (DB mode)")
	sessionID := flag.String("session", "", "session to replay in DB mode (default: most recent)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "print every frame")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/transcript.db [--session id] [-v]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *verbose)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runFixtureMode(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	return evaluate(f, nil, verbose)
}

// runDBMode exports the session to an in-memory fixture, replays it and
// compares every replayed decision with the recorded one.
func runDBMode(dbPath, sessionID string, verbose bool) int {
	store, err := transcript.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	if sessionID == "" {
		sessions, err := store.ListSessions(1)
		if err != nil || len(sessions) == 0 {
			fmt.Fprintf(os.Stderr, "no sessions found in %s\n", dbPath)
			return 2
		}
		sessionID = sessions[0].SessionID
	}

	sess, err := store.GetSession(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	rows, err := store.Frames(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "session %s has no frames\n", sessionID)
		return 2
	}
	phrases, err := store.ListPhrases(sessionID, len(rows))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	f, err := replay.FromTranscript(sess, rows, phrases)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return 2
	}
	fmt.Printf("Session %s (%d frames, %d phrases)\n\n", sessionID, len(rows), len(phrases))
	return evaluate(f, rows, verbose)
}

// #endregion modes

// #region output

// evaluate replays f, prints the frame table and summary, and returns the
// exit code. recorded, when set, adds a column comparing against the log.
func evaluate(f *replay.Fixture, recorded []transcript.FrameRow, verbose bool) int {
	res, result := replay.Evaluate(f)

	diverge := 0
	if verbose || recorded != nil {
		fmt.Printf("%-6s| %-14s| %-6s| %-16s| %s\n", "Seq", "Word", "P1", "Replayed", "Recorded")
		fmt.Printf("%-6s+%-15s+%-7s+%-17s+%s\n", "------", "---------------", "-------", "-----------------", "---------")
	}
	for i, fr := range res.Frames {
		got := frameLabel(fr)
		want := ""
		if recorded != nil && i < len(recorded) {
			want = recorded[i].Decision
			if recorded[i].Reason != "" && want != transcript.DecisionAccepted {
				want += "/" + recorded[i].Reason
			}
			if want != got {
				diverge++
				want += "  DIFF"
			}
		} else if !verbose {
			continue
		}
		word := fr.Frame.Word
		switch {
		case fr.Reset:
			word = "(reset)"
		case fr.Frame.NoSignal:
			word = "-"
		}
		fmt.Printf("%-6d| %-14s| %-6.2f| %-16s| %s\n", fr.Seq, word, fr.Frame.Prob1, got, want)
	}

	s := replay.Summarize(res)
	fmt.Printf("\nFrames: %d total, %d accepted, %d no-signal, %d resets\n", s.TotalFrames, s.Accepted, s.NoSignal, s.Resets)
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  rejected %-16s %d\n", r, s.Rejected[gate.Reason(r)])
	}
	fmt.Printf("Phrases: %d\n", s.Phrases)
	for _, resp := range res.Responses {
		fmt.Printf("  [%s] %s\n", resp.IntentKey, resp.Sentence)
	}

	fmt.Println()
	for _, m := range result.Metrics {
		status := "OK"
		if !m.Pass {
			status = "FAIL"
		}
		fmt.Printf("%-16s %.2f %s\n", m.Name, m.Value, status)
	}
	fmt.Println(result.Reason)

	if recorded != nil {
		fmt.Printf("Decisions: %d diverge from the recording\n", diverge)
	}
	if !result.Passed || diverge > 0 {
		return 1
	}
	return 0
}

func frameLabel(fr replay.FrameResult) string {
	if fr.Reset {
		return transcript.DecisionReset + "/" + transcript.ResetReason
	}
	label := transcript.DecisionLabel(fr.Frame, fr.Decision)
	if label == "accepted" || fr.Decision.Reason == "" {
		return label
	}
	return label + "/" + string(fr.Decision.Reason)
}

// #endregion output
