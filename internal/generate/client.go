package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatService sends one chat request. Swapped out in tests.
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// StatusError is a non-200 reply from the chat endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat error %d: %s", e.Code, e.Body)
}

const maxBody = 4 << 10

// httpChat posts to a chat endpoint over HTTP.
type httpChat struct {
	url  string
	http *http.Client
}

func (h *httpChat) Chat(ctx context.Context, cr ChatRequest) (ChatResponse, error) {
	body, err := json.Marshal(cr)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("reach chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return ChatResponse{}, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChatResponse{}, fmt.Errorf("decode chat response: %w", err)
	}
	return out, nil
}
