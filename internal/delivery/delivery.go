// Package delivery posts completed phrases to a downstream sentence service.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
)

// #region types

// Status classifies how a delivery attempt ended.
type Status string

const (
	StatusDelivered   Status = "delivered"
	StatusRejected    Status = "rejected" // non-2xx response
	StatusTimeout     Status = "timeout"
	StatusUnreachable Status = "unreachable" // connection or request failure
	StatusSkipped     Status = "skipped"     // disabled or empty phrase
)

// Outcome is the result of one Send.
type Outcome struct {
	Status     Status
	StatusCode int
	Body       string // response body, truncated
	Err        error
}

// Config holds delivery parameters.
type Config struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Enabled bool          `yaml:"enabled" json:"enabled"`
}

// Request is the JSON body posted for a phrase.
type Request struct {
	ASLWords []string `json:"aslWords"`
}

// #endregion types

// #region config

// DefaultURL is the sentence service the device posts to out of the box.
const DefaultURL = "http://localhost:8000/generate"

const maxBody = 4 << 10

// DefaultConfig returns delivery defaults. Delivery is off until enabled.
func DefaultConfig() Config {
	return Config{
		URL:     DefaultURL,
		Timeout: 3 * time.Second,
		Enabled: false,
	}
}

// #endregion config

// #region client

// Client posts phrases with a single attempt per phrase.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
	wg     sync.WaitGroup

	// OnOutcome, if set, observes every background delivery.
	OnOutcome func(words []string, out Outcome)
}

// NewClient creates a client. A zero Timeout falls back to the default.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logging.OrNop(logger),
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// #endregion client

// #region send

// Send posts words once and classifies the result. It never retries.
func (c *Client) Send(ctx context.Context, words []string) Outcome {
	if !c.cfg.Enabled || len(words) == 0 {
		return Outcome{Status: StatusSkipped}
	}
	body, err := json.Marshal(Request{ASLWords: words})
	if err != nil {
		return Outcome{Status: StatusUnreachable, Err: fmt.Errorf("marshal phrase: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Status: StatusUnreachable, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{Status: StatusTimeout, Err: err}
		}
		return Outcome{Status: StatusUnreachable, Err: err}
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	out := Outcome{StatusCode: resp.StatusCode, Body: string(b)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Status = StatusRejected
		out.Err = fmt.Errorf("delivery rejected: status %d", resp.StatusCode)
		return out
	}
	out.Status = StatusDelivered
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// #endregion send

// #region deliver

// Deliver sends words in the background and logs the outcome. The words
// slice is copied so the caller may reuse it.
func (c *Client) Deliver(words []string) {
	if !c.cfg.Enabled || len(words) == 0 {
		return
	}
	payload := append([]string(nil), words...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		out := c.Send(context.Background(), payload)
		c.log(payload, out)
		if c.OnOutcome != nil {
			c.OnOutcome(payload, out)
		}
	}()
}

// Wait blocks until every background delivery has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) log(words []string, out Outcome) {
	switch out.Status {
	case StatusDelivered:
		c.logger.Info("phrase delivered", zap.Strings("words", words), zap.Int("status", out.StatusCode))
	case StatusTimeout:
		c.logger.Warn("phrase delivery timed out", zap.Strings("words", words), zap.Duration("timeout", c.cfg.Timeout))
	case StatusRejected:
		c.logger.Warn("phrase delivery rejected", zap.Strings("words", words), zap.Int("status", out.StatusCode))
	case StatusUnreachable:
		c.logger.Warn("phrase delivery unreachable", zap.Strings("words", words), zap.Error(out.Err))
	}
}

// #endregion deliver
