package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/replay"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to transcript db")
	sessionID := flag.String("session", "", "session to export (default: most recent)")
	outPath := flag.String("out", "", "output fixture JSON path")
	seed := flag.Uint64("seed", 1, "template RNG seed stored in the fixture")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--session id] [--seed N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, sessionID, outPath string, seed uint64) error {
	store, err := transcript.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if sessionID == "" {
		sessions, err := store.ListSessions(1)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions in %s", dbPath)
		}
		sessionID = sessions[0].SessionID
	}

	sess, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	rows, err := store.Frames(sessionID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("session %s has no frames", sessionID)
	}
	phrases, err := store.ListPhrases(sessionID, len(rows))
	if err != nil {
		return err
	}

	f, err := replay.FromTranscript(sess, rows, phrases)
	if err != nil {
		return err
	}
	f.Seed = seed

	// the exported expectation must hold against the current pipeline
	if _, result := replay.Evaluate(f); !result.Passed {
		fmt.Fprintf(os.Stderr, "warning: exported fixture does not replay cleanly: %s\n", result.Reason)
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d frames, %d accepted, %d phrases\n",
		outPath, len(f.Frames), len(f.Expected.Accepted), len(f.Expected.Phrases))
	return nil
}

// #endregion export
