package replay

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region fixture-tests

// TestFixture_LiveSession replays the live_session fixture and scores it
// against its expectation. If gate or segmenter behavior drifts, this fails.
func TestFixture_LiveSession(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "live_session.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	res, result := Evaluate(f)
	if !result.Passed {
		t.Fatalf("fixture failed: %s\noutcome: %+v", result.Reason, res.Outcome())
	}
	if diff := cmp.Diff(f.Expected, res.Outcome()); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}

	s := Summarize(res)
	want := ReplaySummary{
		TotalFrames: 29,
		Accepted:    3,
		Rejected: map[gate.Reason]int{
			gate.ReasonUnstable:      6,
			gate.ReasonLowConfidence: 1,
			gate.ReasonRepeatGap:     3,
		},
		NoSignal: 16,
		Phrases:  2,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestFixture_SeedIsReproducible(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "live_session.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	a := ReplayFixture(f)
	b := ReplayFixture(f)
	if len(a.Responses) != 2 || len(b.Responses) != 2 {
		t.Fatalf("expected 2 responses each, got %d/%d", len(a.Responses), len(b.Responses))
	}
	for i := range a.Responses {
		if a.Responses[i].Sentence != b.Responses[i].Sentence {
			t.Errorf("response %d differs across runs: %q vs %q", i, a.Responses[i].Sentence, b.Responses[i].Sentence)
		}
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestToPipelineConfig_DefaultsAbsentFields(t *testing.T) {
	cfg := FixtureConfig{Gate: FixtureGateConfig{StableN: ptr(5)}}.ToPipelineConfig()
	def := orchestrator.DefaultConfig()
	if cfg.Gate.StableN != 5 {
		t.Errorf("stable_n not applied: %d", cfg.Gate.StableN)
	}
	if cfg.Gate.ConfThr != def.Gate.ConfThr || cfg.Gate.Cooldown != def.Gate.Cooldown {
		t.Errorf("absent fields should keep defaults: %+v", cfg.Gate)
	}
	if cfg.Segmenter != def.Segmenter {
		t.Errorf("segmenter should keep defaults: %+v", cfg.Segmenter)
	}

	back := FixtureConfigFrom(def).ToPipelineConfig()
	if diff := cmp.Diff(def, back); diff != "" {
		t.Errorf("config round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestToPipelineConfig_KeepsExplicitZeros covers sessions recorded with a
// zero cooldown or margin: the export must not swap in the defaults.
func TestToPipelineConfig_KeepsExplicitZeros(t *testing.T) {
	recorded := orchestrator.DefaultConfig()
	recorded.Gate.Cooldown = 0
	recorded.Gate.MarginThr = 0
	recorded.Gate.MinGapRepeat = 0
	cfgJSON, err := json.Marshal(recorded)
	if err != nil {
		t.Fatal(err)
	}

	sess := transcript.Session{SessionID: "s", ConfigJSON: string(cfgJSON)}
	f, err := FromTranscript(sess, nil, nil)
	if err != nil {
		t.Fatalf("FromTranscript: %v", err)
	}
	if diff := cmp.Diff(recorded, f.Config.ToPipelineConfig()); diff != "" {
		t.Errorf("replayed config mismatch (-recorded +replayed):\n%s", diff)
	}

	// the zeros also survive the fixture file
	path := filepath.Join(t.TempDir(), "zero.json")
	if err := WriteFixture(path, f); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	reloaded, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if diff := cmp.Diff(recorded, reloaded.Config.ToPipelineConfig()); diff != "" {
		t.Errorf("reloaded config mismatch (-recorded +replayed):\n%s", diff)
	}
}

// #endregion fixture-tests

// #region export-tests

// TestFromTranscript records a replay into a transcript store, exports it
// back to a fixture, and checks the exported fixture replays identically.
func TestFromTranscript(t *testing.T) {
	src, err := LoadFixture(filepath.Join("testdata", "live_session.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	store, err := transcript.NewStore(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	cfg := src.Config.ToPipelineConfig()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	id, err := store.StartSession(string(cfgJSON), "test")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res := ReplayFixture(src)
	rec := store.Recorder(id)
	for _, fr := range res.Frames {
		if fr.Reset {
			if err := rec.RecordReset(fr.Seq, fr.Frame.At, nil); err != nil {
				t.Fatalf("RecordReset: %v", err)
			}
			continue
		}
		if err := rec.RecordDecision(fr.Seq, fr.Frame, fr.Decision); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
	}
	out := res.Outcome()
	for i, resp := range res.Responses {
		if err := rec.RecordPhrase(out.Phrases[i], resp); err != nil {
			t.Fatalf("RecordPhrase: %v", err)
		}
	}

	sess, _ := store.GetSession(id)
	rows, _ := store.Frames(id)
	phrases, _ := store.ListPhrases(id, 100)

	exported, err := FromTranscript(sess, rows, phrases)
	if err != nil {
		t.Fatalf("FromTranscript: %v", err)
	}
	if diff := cmp.Diff(cfg, exported.Config.ToPipelineConfig()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(src.Expected, exported.Expected); diff != "" {
		t.Errorf("expected outcome mismatch (-want +got):\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "exported.json")
	if err := WriteFixture(path, exported); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	reloaded, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, result := Evaluate(reloaded); !result.Passed {
		t.Errorf("exported fixture does not replay: %s", result.Reason)
	}
}

func TestFromTranscript_KeepsResets(t *testing.T) {
	store, err := transcript.NewStore(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	cfg := orchestrator.DefaultConfig()
	cfg.Gate.StableN = 1
	cfg.Segmenter.NoSignalEndRequired = 1
	cfgJSON, _ := json.Marshal(cfg)
	id, err := store.StartSession(string(cfgJSON), "test")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	p := orchestrator.NewPipeline(cfg, testRouter(), nil).WithRecorder(store.Recorder(id))
	inputs := []orchestrator.Input{
		orchestrator.FrameInput(gate.Classification("HELLO", 0.9, 0.1, 0)),
		orchestrator.ResetInput(100),
		orchestrator.FrameInput(gate.Classification("YES", 0.9, 0.1, 2000)),
		orchestrator.FrameInput(gate.NoSignalAt(2100)),
	}
	for _, in := range inputs {
		p.Handle(in)
	}

	sess, _ := store.GetSession(id)
	rows, _ := store.Frames(id)
	phrases, _ := store.ListPhrases(id, 100)
	exported, err := FromTranscript(sess, rows, phrases)
	if err != nil {
		t.Fatalf("FromTranscript: %v", err)
	}
	if len(exported.Frames) != 4 || !exported.Frames[1].Reset || exported.Frames[1].T != 100 {
		t.Fatalf("reset not exported in order: %+v", exported.Frames)
	}

	res := ReplayFixture(exported)
	if s := Summarize(res); s.Resets != 1 || s.Accepted != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if diff := cmp.Diff([][]string{{"YES"}}, res.Outcome().Phrases); diff != "" {
		t.Errorf("phrases mismatch (-want +got):\n%s", diff)
	}
	if _, result := Evaluate(exported); !result.Passed {
		t.Errorf("exported fixture does not replay: %s", result.Reason)
	}
}

// #endregion export-tests
