// Package router turns a finished phrase (or a raw gloss) into a sentence by
// composing intent classification, slot extraction and template selection.
package router

import (
	"strings"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/intent"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
)

// #region types

// Response carries the rendered sentence with the structure behind it.
type Response struct {
	Tokens    []string     `json:"tokens"`
	IntentKey string       `json:"intent"`
	Slots     intent.Slots `json:"slots"`
	Template  string       `json:"template"`
	Sentence  string       `json:"sentence"`
}

// #endregion types

// #region router

// Router is stateless apart from its template bank and random source.
// It is safe for concurrent use when the source is.
type Router struct {
	bank *templates.Bank
	src  templates.Source
}

// New creates a router. A nil src uses templates.DefaultSource.
func New(bank *templates.Bank, src templates.Source) *Router {
	if src == nil {
		src = templates.DefaultSource
	}
	return &Router{bank: bank, src: src}
}

// Bank returns the template bank backing this router.
func (r *Router) Bank() *templates.Bank {
	return r.bank
}

// Respond renders a sentence for already-segmented words.
func (r *Router) Respond(words []string) Response {
	return r.respond(intent.Normalize(words))
}

// RespondGloss tokenizes free text and renders a sentence for it.
func (r *Router) RespondGloss(gloss string) Response {
	return r.respond(intent.Tokenize(gloss))
}

func (r *Router) respond(tokens []string) Response {
	key := intent.Classify(tokens)
	slots := intent.ExtractSlots(tokens, key)
	tmpl := r.bank.Select(key, slots, templates.FallbackKey, r.src)
	return Response{
		Tokens:    tokens,
		IntentKey: key,
		Slots:     slots,
		Template:  tmpl,
		Sentence:  templates.Render(tmpl, slots),
	}
}

// #endregion router

// Gloss joins phrase words into the gloss form sent to collaborators.
func Gloss(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}
