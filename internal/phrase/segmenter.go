// Package phrase accumulates accepted words into duplicate-free phrases and
// closes a phrase after a sustained run of no-signal frames.
package phrase

// #region config
// Config holds phrase boundary settings.
type Config struct {
	// NoSignalEndRequired is how many consecutive no-signal frames end a phrase.
	NoSignalEndRequired int `yaml:"no_signal_end_required" json:"no_signal_end_required"`
}

// DefaultConfig returns the default phrase boundary.
func DefaultConfig() Config {
	return Config{NoSignalEndRequired: 8}
}

// #endregion config

// #region segmenter
// Segmenter owns one session's in-progress phrase. Not safe for concurrent use.
type Segmenter struct {
	config Config

	words          []string
	seen           map[string]struct{}
	noSignalStreak int
}

// NewSegmenter creates an empty segmenter. NoSignalEndRequired below 1 is
// treated as 1.
func NewSegmenter(config Config) *Segmenter {
	if config.NoSignalEndRequired < 1 {
		config.NoSignalEndRequired = 1
	}
	return &Segmenter{
		config: config,
		seen:   make(map[string]struct{}),
	}
}

// OnAccepted records word unless the phrase already holds it, and resets the
// silence streak. Reports whether the word was appended.
func (s *Segmenter) OnAccepted(word string) bool {
	s.noSignalStreak = 0
	if _, dup := s.seen[word]; dup {
		return false
	}
	s.seen[word] = struct{}{}
	s.words = append(s.words, word)
	return true
}

// OnNoSignal advances the silence streak. When it reaches the configured
// length the current phrase (if any) is returned and all state is cleared.
// The streak restarts from zero either way, so continued silence does not
// emit again.
func (s *Segmenter) OnNoSignal() ([]string, bool) {
	s.noSignalStreak++
	if s.noSignalStreak < s.config.NoSignalEndRequired {
		return nil, false
	}
	s.noSignalStreak = 0
	if len(s.words) == 0 {
		return nil, false
	}
	out := s.words
	s.words = nil
	s.seen = make(map[string]struct{})
	return out, true
}

// Words returns a copy of the in-progress phrase.
func (s *Segmenter) Words() []string {
	return append([]string(nil), s.words...)
}

// NoSignalStreak returns the current run of consecutive no-signal frames.
func (s *Segmenter) NoSignalStreak() int {
	return s.noSignalStreak
}

// Reset discards the in-progress phrase without emitting it.
func (s *Segmenter) Reset() {
	s.words = nil
	s.seen = make(map[string]struct{})
	s.noSignalStreak = 0
}

// #endregion segmenter
