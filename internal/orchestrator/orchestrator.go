// Package orchestrator wires the gate, the phrase segmenter and the response
// router into one per-session pipeline, and runs it behind a single goroutine.
package orchestrator

// #region imports
import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/phrase"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
)

// #endregion

// #region pipeline-struct

// Pipeline owns one session's gate and segmenter. Not safe for concurrent
// use; wrap it in a Session when frames arrive from another goroutine.
type Pipeline struct {
	gate      *gate.Gate
	segmenter *phrase.Segmenter
	router    *router.Router
	recorder  Recorder
	deliverer Deliverer
	logger    *zap.Logger
	seq       int64
}

// #endregion

// #region constructor

// NewPipeline creates a pipeline with fresh gate and segmenter state.
func NewPipeline(cfg Config, rt *router.Router, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		gate:      gate.NewGate(cfg.Gate),
		segmenter: phrase.NewSegmenter(cfg.Segmenter),
		router:    rt,
		logger:    logging.OrNop(logger),
	}
}

// WithRecorder attaches a transcript recorder. Recorder errors are logged,
// never returned.
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// WithDeliverer attaches a phrase deliverer.
func (p *Pipeline) WithDeliverer(d Deliverer) *Pipeline {
	p.deliverer = d
	return p
}

// #endregion

// #region step

// Step feeds one frame through the pipeline and returns what it produced:
// nothing, one word_accepted event, or one phrase_completed event.
func (p *Pipeline) Step(f gate.Frame) []Event {
	p.seq++
	d := p.gate.Ingest(f)

	if p.recorder != nil {
		if err := p.recorder.RecordDecision(p.seq, f, d); err != nil {
			p.logger.Warn("record decision failed", zap.Int64("seq", p.seq), zap.Error(err))
		}
	}

	if f.NoSignal {
		words, done := p.segmenter.OnNoSignal()
		if !done {
			return nil
		}
		return []Event{p.complete(f, words)}
	}

	if !d.Accepted {
		p.logger.Debug("frame rejected",
			zap.String("word", f.Word),
			zap.String("reason", string(d.Reason)),
			zap.Int("streak", d.Streak),
		)
		return nil
	}

	added := p.segmenter.OnAccepted(d.Word)
	p.logger.Info("word accepted", zap.String("word", d.Word), zap.Bool("new", added))
	return []Event{{
		Type:      EventWordAccepted,
		Seq:       p.seq,
		At:        f.At,
		Word:      d.Word,
		Duplicate: !added,
	}}
}

// Reset drops the open phrase and the gate's pending candidate. Cooldown and
// repeat-gap history are kept, so a reset cannot be used to re-accept a word
// early.
func (p *Pipeline) Reset(at time.Time) Event {
	p.seq++
	discarded := p.segmenter.Words()
	p.gate.ResetForNoHands()
	p.segmenter.Reset()

	if p.recorder != nil {
		if err := p.recorder.RecordReset(p.seq, at, discarded); err != nil {
			p.logger.Warn("record reset failed", zap.Int64("seq", p.seq), zap.Error(err))
		}
	}
	p.logger.Info("phrase discarded", zap.Strings("words", discarded))
	return Event{Type: EventPhraseDiscarded, Seq: p.seq, At: at, Phrase: discarded}
}

// Handle dispatches one session input to Step or Reset.
func (p *Pipeline) Handle(in Input) []Event {
	if in.Reset {
		return []Event{p.Reset(in.Frame.At)}
	}
	return p.Step(in.Frame)
}

func (p *Pipeline) complete(f gate.Frame, words []string) Event {
	resp := p.router.Respond(words)
	p.logger.Info("phrase completed",
		zap.Strings("words", words),
		zap.String("intent", resp.IntentKey),
		zap.String("sentence", resp.Sentence),
	)
	if p.recorder != nil {
		if err := p.recorder.RecordPhrase(words, resp); err != nil {
			p.logger.Warn("record phrase failed", zap.Error(err))
		}
	}
	if p.deliverer != nil {
		p.deliverer.Deliver(words)
	}
	return Event{
		Type:     EventPhraseCompleted,
		Seq:      p.seq,
		At:       f.At,
		Phrase:   words,
		Response: &resp,
	}
}

// #endregion

// #region accessors

// OpenPhrase returns the words accumulated since the last boundary.
func (p *Pipeline) OpenPhrase() []string {
	return p.segmenter.Words()
}

// Frames returns how many frames have been stepped.
func (p *Pipeline) Frames() int64 {
	return p.seq
}

// #endregion

// #region session

// Session serializes all inputs of one camera session through a Pipeline.
type Session struct {
	pipeline *Pipeline
}

// NewSession wraps p. p must not be stepped from anywhere else afterwards.
func NewSession(p *Pipeline) *Session {
	return &Session{pipeline: p}
}

// Run drains in until it is closed or ctx ends, forwarding events to out in
// frame order. Run closes out before returning. It returns ctx.Err() on
// cancellation and nil when in is closed.
func (s *Session) Run(ctx context.Context, in <-chan Input, out chan<- Event) error {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				return nil
			}
			for _, ev := range s.pipeline.Handle(item) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// #endregion
