package gate

import (
	"time"
)

// #region gate
// Gate turns per-frame classifier output into discrete accepted words.
// It is not safe for concurrent use; feed it from one goroutine per session.
type Gate struct {
	config GateConfig

	candidate string
	streak    int

	lastAcceptedAt   time.Time
	lastAcceptedWord string
	lastSeenAt       map[string]time.Time
}

// NewGate creates a gate with the given configuration. StableN below 1 is
// treated as 1.
func NewGate(config GateConfig) *Gate {
	if config.StableN < 1 {
		config.StableN = 1
	}
	return &Gate{
		config:     config,
		lastSeenAt: make(map[string]time.Time),
	}
}

// Config returns the active thresholds.
func (g *Gate) Config() GateConfig {
	return g.config
}

// LastAccepted returns the most recently accepted word and when, if any.
func (g *Gate) LastAccepted() (string, time.Time, bool) {
	if g.lastAcceptedAt.IsZero() {
		return "", time.Time{}, false
	}
	return g.lastAcceptedWord, g.lastAcceptedAt, true
}

// ResetForNoHands drops the current candidate and streak. Cooldown and
// per-word bookkeeping survive.
func (g *Gate) ResetForNoHands() {
	g.candidate = ""
	g.streak = 0
}

// Ingest evaluates one frame, in order: cooldown, confidence, margin,
// stability, repeat gap.
func (g *Gate) Ingest(f Frame) GateDecision {
	if f.NoSignal {
		g.ResetForNoHands()
		return GateDecision{Reason: ReasonNoSignal}
	}

	now := f.At
	margin := f.Prob1 - f.Prob2

	// 1. Global cooldown after any acceptance; state untouched.
	if !g.lastAcceptedAt.IsZero() && now.Sub(g.lastAcceptedAt) < g.config.Cooldown {
		return GateDecision{Reason: ReasonCooldown, Streak: g.streak, Margin: margin}
	}

	// 2. Confidence threshold
	if f.Prob1 < g.config.ConfThr {
		g.ResetForNoHands()
		return GateDecision{Reason: ReasonLowConfidence, Margin: margin}
	}

	// 3. Margin gating
	if margin < g.config.MarginThr {
		g.ResetForNoHands()
		return GateDecision{Reason: ReasonLowMargin, Margin: margin}
	}

	// 4. Stable run
	if g.streak > 0 && f.Word == g.candidate {
		g.streak++
	} else {
		g.candidate = f.Word
		g.streak = 1
	}
	if g.streak < g.config.StableN {
		return GateDecision{Reason: ReasonUnstable, Streak: g.streak, Margin: margin}
	}

	// 5. Repeat gap; cap the streak so it cannot grow without bound.
	if last, ok := g.lastSeenAt[f.Word]; ok && now.Sub(last) < g.config.MinGapRepeat {
		g.streak = g.config.StableN
		return GateDecision{Reason: ReasonRepeatGap, Streak: g.streak, Margin: margin}
	}

	// 6. Accept
	g.lastAcceptedAt = now
	g.lastAcceptedWord = f.Word
	g.lastSeenAt[f.Word] = now
	g.streak = g.config.StableN

	return GateDecision{
		Accepted: true,
		Word:     f.Word,
		Reason:   ReasonAccepted,
		Streak:   g.streak,
		Margin:   margin,
	}
}

// #endregion gate
