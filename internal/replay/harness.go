// Package replay runs recorded or synthetic frame sequences through a fresh
// pipeline, for regression fixtures and offline tuning.
package replay

import (
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/eval"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
)

// #region types

// FrameResult is the gate's verdict on one replayed frame, or a reset.
type FrameResult struct {
	Seq      int64
	Frame    gate.Frame
	Decision gate.GateDecision
	Reset    bool
}

// ReplayResult captures everything a replay run produced.
type ReplayResult struct {
	Frames    []FrameResult
	Events    []orchestrator.Event
	Responses []router.Response
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalFrames int
	Accepted    int
	Rejected    map[gate.Reason]int // per reason, excluding no-signal frames
	NoSignal    int
	Resets      int
	Phrases     int
}

// collector is the in-memory recorder used during replay.
type collector struct {
	frames []FrameResult
}

func (c *collector) RecordDecision(seq int64, f gate.Frame, d gate.GateDecision) error {
	c.frames = append(c.frames, FrameResult{Seq: seq, Frame: f, Decision: d})
	return nil
}

func (c *collector) RecordReset(seq int64, at time.Time, _ []string) error {
	c.frames = append(c.frames, FrameResult{Seq: seq, Frame: gate.Frame{At: at}, Reset: true})
	return nil
}

func (c *collector) RecordPhrase([]string, router.Response) error { return nil }

// #endregion types

// #region replay

// Replay feeds inputs through a fresh pipeline. Operates entirely in-memory.
func Replay(inputs []orchestrator.Input, cfg orchestrator.Config, rt *router.Router) ReplayResult {
	col := &collector{}
	p := orchestrator.NewPipeline(cfg, rt, nil).WithRecorder(col)

	var res ReplayResult
	for _, in := range inputs {
		for _, ev := range p.Handle(in) {
			res.Events = append(res.Events, ev)
			if ev.Response != nil {
				res.Responses = append(res.Responses, *ev.Response)
			}
		}
	}
	res.Frames = col.frames
	return res
}

// ReplayFixture replays f with the built-in templates and a PCG source
// seeded from f.Seed, so template choice is reproducible.
func ReplayFixture(f *Fixture) ReplayResult {
	rt := router.New(templates.NewDefaultBank(), rand.New(rand.NewPCG(f.Seed, f.Seed)))
	return Replay(f.Inputs(), f.Config.ToPipelineConfig(), rt)
}

// Outcome extracts the words, phrases and intents a run produced.
func (r ReplayResult) Outcome() eval.Outcome {
	out := eval.Outcome{Accepted: []string{}, Phrases: [][]string{}}
	for _, ev := range r.Events {
		switch ev.Type {
		case orchestrator.EventWordAccepted:
			out.Accepted = append(out.Accepted, ev.Word)
		case orchestrator.EventPhraseCompleted:
			out.Phrases = append(out.Phrases, ev.Phrase)
			if ev.Response != nil {
				out.Intents = append(out.Intents, ev.Response.IntentKey)
			}
		}
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(r ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalFrames: len(r.Frames),
		Rejected:    make(map[gate.Reason]int),
	}
	for _, fr := range r.Frames {
		switch {
		case fr.Reset:
			s.Resets++
		case fr.Decision.Accepted:
			s.Accepted++
		case fr.Frame.NoSignal:
			s.NoSignal++
		default:
			s.Rejected[fr.Decision.Reason]++
		}
	}
	for _, ev := range r.Events {
		if ev.Type == orchestrator.EventPhraseCompleted {
			s.Phrases++
		}
	}
	return s
}

// Evaluate replays f and scores the result against its expectation, using
// the fixture's eval thresholds when present.
func Evaluate(f *Fixture) (ReplayResult, eval.EvalResult) {
	res := ReplayFixture(f)
	cfg := eval.DefaultEvalConfig()
	if f.EvalConfig != nil {
		cfg = *f.EvalConfig
	}
	return res, eval.NewEvalHarness(cfg).Run(f.Expected, res.Outcome())
}

// #endregion replay
