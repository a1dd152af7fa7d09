package generate

import "time"

// #region config

// Config holds the chat backend parameters. Generation is off until enabled.
type Config struct {
	URL         string        `yaml:"url" json:"url"`
	Model       string        `yaml:"model" json:"model"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	NumPredict  int           `yaml:"num_predict" json:"num_predict"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"` // 1 = no retry
	Enabled     bool          `yaml:"enabled" json:"enabled"`
}

// DefaultURL is a local Ollama chat endpoint.
const DefaultURL = "http://127.0.0.1:11434/api/chat"

// DefaultConfig returns generation defaults.
func DefaultConfig() Config {
	return Config{
		URL:         DefaultURL,
		Model:       "llama3",
		Timeout:     20 * time.Second,
		Temperature: 0.2,
		NumPredict:  50,
		MaxAttempts: 1,
		Enabled:     false,
	}
}

// #endregion config

// #region wire-types

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the sampling options sent with every request.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// ChatRequest is the body posted to the chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Stream   bool      `json:"stream"`
	Messages []Message `json:"messages"`
	Options  Options   `json:"options"`
}

// ChatResponse is the subset of the chat reply that is read.
type ChatResponse struct {
	Message *Message `json:"message"`
}

// #endregion wire-types

// #region failure

// FailureType classifies an unusable model reply.
type FailureType string

const (
	FailureNone    FailureType = ""
	FailureEmpty   FailureType = "empty"
	FailureRefusal FailureType = "refusal" // assistant boilerplate instead of a sentence
	FailureEcho    FailureType = "echo"    // the gloss or the prompt framing came back
)

// #endregion failure
