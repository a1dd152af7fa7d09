package orchestrator

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/phrase"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
)

// #endregion

// #region event-type

// EventType names what a frame produced.
type EventType string

const (
	EventWordAccepted    EventType = "word_accepted"
	EventPhraseCompleted EventType = "phrase_completed"
	EventPhraseDiscarded EventType = "phrase_discarded" // client reset
)

// #endregion

// #region event

// Event is one observable output of the pipeline.
type Event struct {
	Type      EventType        `json:"type"`
	Seq       int64            `json:"seq"`
	At        time.Time        `json:"at"`
	Word      string           `json:"word,omitempty"`      // word_accepted
	Duplicate bool             `json:"duplicate,omitempty"` // word already in the open phrase
	Phrase    []string         `json:"phrase,omitempty"`    // phrase_completed, phrase_discarded
	Response  *router.Response `json:"response,omitempty"`  // phrase_completed
}

// #endregion

// #region input

// Input is one item on a session's input channel: a frame, or a client
// request to drop the open phrase.
type Input struct {
	Frame gate.Frame
	Reset bool
}

// FrameInput wraps a frame.
func FrameInput(f gate.Frame) Input {
	return Input{Frame: f}
}

// ResetInput builds a reset stamped with a millisecond timestamp.
func ResetInput(tsMs int64) Input {
	return Input{Reset: true, Frame: gate.Frame{At: time.UnixMilli(tsMs)}}
}

// #endregion

// #region config

// Config bundles the per-session tuning of the gate and the segmenter.
type Config struct {
	Gate      gate.GateConfig `yaml:"gate" json:"gate"`
	Segmenter phrase.Config   `yaml:"segmenter" json:"segmenter"`
}

// DefaultConfig returns the on-device defaults for both stages.
func DefaultConfig() Config {
	return Config{
		Gate:      gate.DefaultGateConfig(),
		Segmenter: phrase.DefaultConfig(),
	}
}

// #endregion

// #region hooks

// Recorder persists decisions, resets and phrases. transcript.Recorder
// implements it.
type Recorder interface {
	RecordDecision(seq int64, f gate.Frame, d gate.GateDecision) error
	RecordReset(seq int64, at time.Time, discarded []string) error
	RecordPhrase(words []string, resp router.Response) error
}

// Deliverer hands a finished phrase to a downstream collaborator without
// blocking the pipeline. delivery.Client implements it.
type Deliverer interface {
	Deliver(words []string)
}

// #endregion
