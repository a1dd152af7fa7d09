package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/signals"
)

// #region frame-message

// FrameMessage is one client message on the /session websocket. Exactly one
// of the four shapes is expected: a classification (word, prob1, prob2), a
// no-signal marker, raw scores decoded with the server's label map, or a
// reset that drops the open phrase.
type FrameMessage struct {
	Word     string    `json:"word,omitempty"`
	Prob1    *float32  `json:"prob1,omitempty"`
	Prob2    *float32  `json:"prob2,omitempty"`
	NoSignal bool      `json:"noSignal,omitempty"`
	Reset    bool      `json:"reset,omitempty"`
	Scores   []float32 `json:"scores,omitempty"`
	T        *int64    `json:"t,omitempty"` // ms; server receive time when absent
}

var errNoLabels = errors.New("scores require a label map on the server")

// DecodeInput parses a client message into a session input. producer may be
// nil, in which case score frames are rejected. Reset messages skip frame
// validation.
func DecodeInput(data []byte, producer *signals.Producer) (orchestrator.Input, error) {
	var m FrameMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return orchestrator.Input{}, fmt.Errorf("decode frame: %w", err)
	}
	if m.Reset {
		return orchestrator.ResetInput(m.timestamp()), nil
	}
	f, err := m.Frame(producer)
	if err != nil {
		return orchestrator.Input{}, err
	}
	return orchestrator.FrameInput(f), nil
}

func (m FrameMessage) timestamp() int64 {
	if m.T != nil {
		return *m.T
	}
	return time.Now().UnixMilli()
}

// Frame validates m and converts it into a gate frame.
func (m FrameMessage) Frame(producer *signals.Producer) (gate.Frame, error) {
	ts := m.timestamp()

	switch {
	case m.NoSignal:
		return gate.NoSignalAt(ts), nil
	case len(m.Scores) > 0:
		if producer == nil {
			return gate.Frame{}, errNoLabels
		}
		return producer.Produce(m.Scores, ts)
	}

	if m.Word == "" {
		return gate.Frame{}, errors.New("classification frame needs a word")
	}
	if m.Prob1 == nil || m.Prob2 == nil {
		return gate.Frame{}, errors.New("classification frame needs prob1 and prob2")
	}
	p1, p2 := *m.Prob1, *m.Prob2
	if p1 < 0 || p1 > 1 || p2 < 0 || p2 > 1 {
		return gate.Frame{}, fmt.Errorf("probabilities must be in [0,1], got %v/%v", p1, p2)
	}
	if p2 > p1 {
		return gate.Frame{}, fmt.Errorf("prob2 %v exceeds prob1 %v", p2, p1)
	}
	return gate.Classification(m.Word, p1, p2, ts), nil
}

// #endregion frame-message

// #region event-message

// EventMessage is one server message on the /session websocket.
type EventMessage struct {
	Type      string            `json:"type"` // session | word | phrase | reset | error
	SessionID string            `json:"sessionId,omitempty"`
	Word      string            `json:"word,omitempty"`
	Duplicate bool              `json:"duplicate,omitempty"`
	Words     []string          `json:"words,omitempty"`
	Sentence  string            `json:"sentence,omitempty"`
	Intent    string            `json:"intent,omitempty"`
	Slots     map[string]string `json:"slots,omitempty"`
	Template  string            `json:"template,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	T         int64             `json:"t,omitempty"`
}

func eventMessage(ev orchestrator.Event) EventMessage {
	switch ev.Type {
	case orchestrator.EventWordAccepted:
		return EventMessage{Type: "word", Word: ev.Word, Duplicate: ev.Duplicate, T: ev.At.UnixMilli()}
	case orchestrator.EventPhraseDiscarded:
		return EventMessage{Type: "reset", Words: ev.Phrase, T: ev.At.UnixMilli()}
	default:
		m := EventMessage{Type: "phrase", Words: ev.Phrase, T: ev.At.UnixMilli()}
		if ev.Response != nil {
			m.Sentence = ev.Response.Sentence
			m.Intent = ev.Response.IntentKey
			m.Slots = ev.Response.Slots
			m.Template = ev.Response.Template
		}
		return m
	}
}

// #endregion event-message
