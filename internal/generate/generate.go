// Package generate turns a gloss into an English sentence with a chat model.
// Callers keep the template sentence as the fallback for every failure.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
)

// #region prompt

// SystemPrompt carries the gloss grammar rules given to the model.
const SystemPrompt = "You are an ASL gloss → English translator.\n" +
	"ASL gloss rules you MUST follow:\n" +
	"- ASL is topic-comment: the topic comes first (e.g., STORE I GO = I go to the store)\n" +
	"- When no subject is explicit, default to first person (I/me)\n" +
	"- IX-YOU / YOU = you, IX-ME / ME / I = I, IX-THEY / THEY = they\n" +
	"- Directional verbs encode subject/object: GIVE-YOU = I give you, YOU-GIVE = you give me\n" +
	"- Time signs come first: YESTERDAY I GO STORE = I went to the store yesterday\n" +
	"- FINISH = past tense, WILL = future tense\n" +
	"- Repeated signs = emphasis or plurality\n" +
	"Output ONLY one natural English sentence. No quotes, no explanation."

// UserPrompt frames the gloss for the model.
func UserPrompt(gloss string) string {
	return "ASL gloss: " + gloss
}

// #endregion prompt

// #region generator

// ErrEmptyGloss is returned for a blank gloss; no request is sent.
var ErrEmptyGloss = errors.New("gloss cannot be empty")

// UnusableError reports a reply that came back but failed the checks.
type UnusableError struct {
	Failure FailureType
	Reply   string
}

func (e *UnusableError) Error() string {
	return fmt.Sprintf("unusable reply (%s): %q", e.Failure, e.Reply)
}

// Generator asks the chat backend for one sentence per gloss.
type Generator struct {
	cfg    Config
	svc    ChatService
	logger *zap.Logger
}

// New creates a generator talking HTTP to cfg.URL. Zero fields take defaults.
func New(cfg Config, logger *zap.Logger) *Generator {
	cfg = withDefaults(cfg)
	return NewWithService(cfg, &httpChat{url: cfg.URL, http: &http.Client{Timeout: cfg.Timeout}}, logger)
}

// NewWithService creates a generator with an injected chat backend.
func NewWithService(cfg Config, svc ChatService, logger *zap.Logger) *Generator {
	return &Generator{cfg: withDefaults(cfg), svc: svc, logger: logging.OrNop(logger)}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = def.NumPredict
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return cfg
}

// Enabled reports whether generation should be attempted at all.
func (g *Generator) Enabled() bool {
	return g != nil && g.cfg.Enabled
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate returns the model's sentence for gloss. Transport errors are not
// retried; unusable replies are, up to MaxAttempts.
func (g *Generator) Generate(ctx context.Context, gloss string) (string, error) {
	gloss = strings.TrimSpace(gloss)
	if gloss == "" {
		return "", ErrEmptyGloss
	}
	req := ChatRequest{
		Model:  g.cfg.Model,
		Stream: false,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(gloss)},
		},
		Options: Options{Temperature: g.cfg.Temperature, NumPredict: g.cfg.NumPredict},
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		resp, err := g.svc.Chat(callCtx, req)
		cancel()
		if err != nil {
			return "", err
		}

		reply := ""
		if resp.Message != nil {
			reply = resp.Message.Content
		}
		sentence := Clean(reply)
		failure := DetectFailure(gloss, sentence)
		if failure == FailureNone {
			return sentence, nil
		}
		lastErr = &UnusableError{Failure: failure, Reply: reply}
		g.logger.Debug("unusable generation",
			zap.String("gloss", gloss),
			zap.String("failure", string(failure)),
			zap.Int("attempt", attempt),
		)
	}
	return "", lastErr
}

// #endregion generator

// #region checks

// Clean trims the reply and strips one pair of surrounding double quotes,
// then one pair of single quotes.
func Clean(reply string) string {
	s := strings.TrimSpace(reply)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

var refusalPatterns = []string{
	"i cannot",
	"i can't",
	"as an ai",
	"as a language model",
	"i'm not able to",
	"i am not able to",
	"could you provide",
	"please provide",
}

// DetectFailure checks a cleaned reply for the ways a chat model misses the
// one-sentence contract.
func DetectFailure(gloss, sentence string) FailureType {
	if sentence == "" {
		return FailureEmpty
	}
	lower := strings.ToLower(sentence)
	for _, p := range refusalPatterns {
		if strings.Contains(lower, p) {
			return FailureRefusal
		}
	}
	if strings.Contains(lower, "asl gloss") || sentence == strings.TrimSpace(gloss) {
		return FailureEcho
	}
	return FailureNone
}

// #endregion checks
