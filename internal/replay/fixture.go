package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/eval"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string           `json:"description"`
	Config      FixtureConfig    `json:"config"`
	Seed        uint64           `json:"seed"`
	Frames      []FixtureFrame   `json:"frames"`
	Expected    eval.Outcome     `json:"expected"`
	EvalConfig  *eval.EvalConfig `json:"eval_config,omitempty"`
}

// FixtureFrame mirrors gate.Frame with a millisecond timestamp. Reset marks
// a client reset instead of a frame.
type FixtureFrame struct {
	Word     string  `json:"word,omitempty"`
	Prob1    float32 `json:"prob1,omitempty"`
	Prob2    float32 `json:"prob2,omitempty"`
	NoSignal bool    `json:"no_signal,omitempty"`
	Reset    bool    `json:"reset,omitempty"`
	T        int64   `json:"t"`
}

// FixtureConfig bundles the gate and segmenter tuning for a replay run.
type FixtureConfig struct {
	Gate      FixtureGateConfig      `json:"gate"`
	Segmenter FixtureSegmenterConfig `json:"segmenter"`
}

// FixtureGateConfig mirrors gate.GateConfig with millisecond durations.
// Absent fields fall back to the defaults; an explicit zero is kept.
type FixtureGateConfig struct {
	ConfThr        *float32 `json:"conf_thr,omitempty"`
	MarginThr      *float32 `json:"margin_thr,omitempty"`
	StableN        *int     `json:"stable_n,omitempty"`
	CooldownMs     *int64   `json:"cooldown_ms,omitempty"`
	MinGapRepeatMs *int64   `json:"min_gap_repeat_ms,omitempty"`
}

// FixtureSegmenterConfig mirrors phrase.Config.
type FixtureSegmenterConfig struct {
	NoSignalEndRequired *int `json:"no_signal_end_required,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToFrame converts a FixtureFrame to a gate frame.
func (ff FixtureFrame) ToFrame() gate.Frame {
	if ff.NoSignal {
		return gate.NoSignalAt(ff.T)
	}
	return gate.Classification(ff.Word, ff.Prob1, ff.Prob2, ff.T)
}

// ToInput converts a FixtureFrame to a session input.
func (ff FixtureFrame) ToInput() orchestrator.Input {
	if ff.Reset {
		return orchestrator.ResetInput(ff.T)
	}
	return orchestrator.FrameInput(ff.ToFrame())
}

// Inputs converts every fixture frame, resets included.
func (f *Fixture) Inputs() []orchestrator.Input {
	out := make([]orchestrator.Input, len(f.Frames))
	for i, ff := range f.Frames {
		out[i] = ff.ToInput()
	}
	return out
}

// ToPipelineConfig overlays the fixture's present settings on the defaults.
func (fc FixtureConfig) ToPipelineConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	g := fc.Gate
	if g.ConfThr != nil {
		cfg.Gate.ConfThr = *g.ConfThr
	}
	if g.MarginThr != nil {
		cfg.Gate.MarginThr = *g.MarginThr
	}
	if g.StableN != nil {
		cfg.Gate.StableN = *g.StableN
	}
	if g.CooldownMs != nil {
		cfg.Gate.Cooldown = time.Duration(*g.CooldownMs) * time.Millisecond
	}
	if g.MinGapRepeatMs != nil {
		cfg.Gate.MinGapRepeat = time.Duration(*g.MinGapRepeatMs) * time.Millisecond
	}
	if fc.Segmenter.NoSignalEndRequired != nil {
		cfg.Segmenter.NoSignalEndRequired = *fc.Segmenter.NoSignalEndRequired
	}
	return cfg
}

// FixtureConfigFrom is the inverse of ToPipelineConfig. Every field is
// written, so zero settings survive the round trip.
func FixtureConfigFrom(cfg orchestrator.Config) FixtureConfig {
	return FixtureConfig{
		Gate: FixtureGateConfig{
			ConfThr:        ptr(cfg.Gate.ConfThr),
			MarginThr:      ptr(cfg.Gate.MarginThr),
			StableN:        ptr(cfg.Gate.StableN),
			CooldownMs:     ptr(cfg.Gate.Cooldown.Milliseconds()),
			MinGapRepeatMs: ptr(cfg.Gate.MinGapRepeat.Milliseconds()),
		},
		Segmenter: FixtureSegmenterConfig{NoSignalEndRequired: ptr(cfg.Segmenter.NoSignalEndRequired)},
	}
}

func ptr[T any](v T) *T { return &v }

// #endregion fixture-loader

// #region fixture-export

// FromTranscript builds a fixture from a recorded session. The recorded
// accepted words and phrases become the expectation, so replaying the
// fixture with the recorded config should reproduce them exactly.
func FromTranscript(sess transcript.Session, rows []transcript.FrameRow, phrases []transcript.PhraseRow) (*Fixture, error) {
	cfg := orchestrator.DefaultConfig()
	if sess.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(sess.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("session %s config: %w", sess.SessionID, err)
		}
	}

	f := &Fixture{
		Description: fmt.Sprintf("exported from session %s (%s)", sess.SessionID, sess.StartedAt.Format(time.RFC3339)),
		Config:      FixtureConfigFrom(cfg),
		Frames:      make([]FixtureFrame, 0, len(rows)),
		Expected:    eval.Outcome{Accepted: []string{}, Phrases: [][]string{}},
	}
	for _, r := range rows {
		if r.IsReset() {
			f.Frames = append(f.Frames, FixtureFrame{Reset: true, T: r.FrameMs})
			continue
		}
		f.Frames = append(f.Frames, FixtureFrame{
			Word: r.Word, Prob1: r.Prob1, Prob2: r.Prob2, NoSignal: r.NoSignal, T: r.FrameMs,
		})
		if r.Decision == transcript.DecisionAccepted {
			f.Expected.Accepted = append(f.Expected.Accepted, r.Word)
		}
	}

	// ListPhrases is newest first
	ordered := slices.Clone(phrases)
	slices.Reverse(ordered)
	for _, p := range ordered {
		f.Expected.Phrases = append(f.Expected.Phrases, p.Words)
		f.Expected.Intents = append(f.Expected.Intents, p.Intent)
	}
	return f, nil
}

// #endregion fixture-export
