// Package templates holds the intent → sentence template table and renders
// templates against extracted slots.
package templates

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync/atomic"
)

// #region constants

// FallbackKey is consulted when an intent has no templates of its own.
const FallbackKey = "unknown"

// Apology is used when neither the intent nor FallbackKey has templates.
const Apology = "Sorry, can you rephrase that?"

//go:embed default_templates.json
var defaultPayload []byte

// #endregion constants

// #region errors

// DecodeError reports a template payload that is not a mapping from string to
// a list of strings.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode templates: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// #endregion errors

// #region source

// Source picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the goroutine-safe global generator.
var DefaultSource Source = globalSource{}

// #endregion source

// #region bank

// Bank is an intent → templates table. Reads take a snapshot; Load swaps the
// whole table so a reader never sees a partial update.
type Bank struct {
	table atomic.Pointer[map[string][]string]
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	b := &Bank{}
	empty := map[string][]string{}
	b.table.Store(&empty)
	return b
}

// NewDefaultBank returns a bank loaded with the built-in templates.
func NewDefaultBank() *Bank {
	b := NewBank()
	if err := b.Load(defaultPayload); err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return b
}

// Load replaces the table with payload, a JSON object of intent → [template].
// On error the previous table is kept.
func (b *Bank) Load(payload []byte) error {
	var table map[string][]string
	if err := json.Unmarshal(payload, &table); err != nil {
		return &DecodeError{Err: err}
	}
	if table == nil {
		return &DecodeError{Err: fmt.Errorf("payload is null")}
	}
	b.table.Store(&table)
	return nil
}

// LoadFile reads path and loads it.
func (b *Bank) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates %s: %w", path, err)
	}
	if err := b.Load(data); err != nil {
		return fmt.Errorf("load templates %s: %w", path, err)
	}
	return nil
}

// Snapshot returns the current table. Callers must not modify it.
func (b *Bank) Snapshot() map[string][]string {
	return *b.table.Load()
}

// Candidates returns the templates for intentKey, else for fallbackKey, else
// the built-in apology.
func (b *Bank) Candidates(intentKey, fallbackKey string) []string {
	table := b.Snapshot()
	if list, ok := table[intentKey]; ok {
		return list
	}
	if list, ok := table[fallbackKey]; ok {
		return list
	}
	return []string{Apology}
}

// Select picks a template for intentKey. Preference order: fillable templates
// that use {NOUN} when a NOUN slot exists, then any fillable template, then
// any candidate at all. Ties are broken by src.
func (b *Bank) Select(intentKey string, slots map[string]string, fallbackKey string, src Source) string {
	if src == nil {
		src = DefaultSource
	}
	list := b.Candidates(intentKey, fallbackKey)
	if len(list) == 0 {
		// An intent mapped to an empty list still needs an answer.
		list = []string{Apology}
	}

	var viable []string
	for _, t := range list {
		if len(MissingPlaceholders(t, slots)) == 0 {
			viable = append(viable, t)
		}
	}

	if _, ok := slots["NOUN"]; ok {
		var nounFirst []string
		for _, t := range viable {
			if strings.Contains(t, "{NOUN}") {
				nounFirst = append(nounFirst, t)
			}
		}
		if len(nounFirst) > 0 {
			return nounFirst[src.IntN(len(nounFirst))]
		}
	}

	if len(viable) > 0 {
		return viable[src.IntN(len(viable))]
	}
	return list[src.IntN(len(list))]
}

// #endregion bank
