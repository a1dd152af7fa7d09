// Package signals decodes raw per-class model scores into gate frames.
package signals

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/gate"
)

// ErrTooFewScores is returned when a score vector cannot yield a top-2 pair.
var ErrTooFewScores = errors.New("signals: need at least two scores")

// #region producer

// Producer turns logits into classification frames using a label map.
type Producer struct {
	labels LabelMap
}

// NewProducer creates a Producer. A nil map labels every index unknown(<i>).
func NewProducer(labels LabelMap) *Producer {
	if labels == nil {
		labels = LabelMap{}
	}
	return &Producer{labels: labels}
}

// #endregion producer

// #region produce

// Produce softmaxes scores and returns the top-1 label with the top-2
// probabilities as a classification frame stamped tsMs.
func (p *Producer) Produce(scores []float32, tsMs int64) (gate.Frame, error) {
	t, err := TopTwo(Softmax(scores))
	if err != nil {
		return gate.Frame{}, err
	}
	return gate.Classification(p.labels.Label(t.I1), t.P1, t.P2, tsMs), nil
}

// #endregion produce

// #region softmax

// Softmax converts logits into probabilities, subtracting the max first.
// An all-underflow input yields zeros.
func Softmax(scores []float32) []float32 {
	if len(scores) == 0 {
		return nil
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float32, len(scores))
	var sum float64
	for i, s := range scores {
		e := math.Exp(float64(s - maxScore))
		out[i] = float32(e)
		sum += e
	}
	if sum <= 0 || math.IsNaN(sum) {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// #endregion softmax

// #region top-two

// TopTwo returns the indices and values of the two largest probabilities.
// Ties keep the lower index first.
func TopTwo(probs []float32) (Top2, error) {
	if len(probs) < 2 {
		return Top2{}, ErrTooFewScores
	}
	b1i, b1p := 0, probs[0]
	b2i, b2p := 1, probs[1]
	if b2p > b1p {
		b1i, b1p, b2i, b2p = b2i, b2p, b1i, b1p
	}
	for i := 2; i < len(probs); i++ {
		p := probs[i]
		if p > b1p {
			b2i, b2p = b1i, b1p
			b1i, b1p = i, p
		} else if p > b2p {
			b2i, b2p = i, p
		}
	}
	return Top2{I1: b1i, P1: b1p, I2: b2i, P2: b2p}, nil
}

// #endregion top-two
