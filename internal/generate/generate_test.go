package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// #region helpers

// chatStub serves canned chat replies in order, repeating the last one.
func chatStub(t *testing.T, replies ...string) (*httptest.Server, func() []ChatRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		got = append(got, req)
		i := len(got) - 1
		mu.Unlock()
		if i >= len(replies) {
			i = len(replies) - 1
		}
		json.NewEncoder(w).Encode(ChatResponse{Message: &Message{Role: "assistant", Content: replies[i]}})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []ChatRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]ChatRequest(nil), got...)
	}
}

func enabled(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Timeout = time.Second
	cfg.Enabled = true
	return cfg
}

// fakeChat is an in-process ChatService.
type fakeChat struct {
	resp  ChatResponse
	err   error
	calls int
}

func (f *fakeChat) Chat(context.Context, ChatRequest) (ChatResponse, error) {
	f.calls++
	return f.resp, f.err
}

// #endregion

// #region generate-tests

func TestGenerate_SendsPromptAndOptions(t *testing.T) {
	srv, got := chatStub(t, `"I go to the store."`)
	g := New(enabled(srv.URL), nil)

	sentence, err := g.Generate(context.Background(), " STORE I GO ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sentence != "I go to the store." {
		t.Errorf("sentence = %q", sentence)
	}
	reqs := got()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	want := ChatRequest{
		Model:  "llama3",
		Stream: false,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: "ASL gloss: STORE I GO"},
		},
		Options: Options{Temperature: 0.2, NumPredict: 50},
	}
	if diff := cmp.Diff(want, reqs[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(enabled(srv.URL), nil).Generate(context.Background(), "HELLO")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := New(enabled(url), nil).Generate(context.Background(), "HELLO"); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestGenerate_EmptyGlossSendsNothing(t *testing.T) {
	fc := &fakeChat{}
	_, err := NewWithService(DefaultConfig(), fc, nil).Generate(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyGloss) {
		t.Fatalf("expected ErrEmptyGloss, got %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("expected no chat call, got %d", fc.calls)
	}
}

func TestGenerate_MissingMessageIsEmpty(t *testing.T) {
	fc := &fakeChat{resp: ChatResponse{}}
	_, err := NewWithService(DefaultConfig(), fc, nil).Generate(context.Background(), "HELLO")
	var ue *UnusableError
	if !errors.As(err, &ue) || ue.Failure != FailureEmpty {
		t.Fatalf("expected empty failure, got %v", err)
	}
}

func TestGenerate_RetriesUnusableReplies(t *testing.T) {
	srv, got := chatStub(t, "As an AI, I cannot translate that.", "Hello!")
	cfg := enabled(srv.URL)
	cfg.MaxAttempts = 2

	sentence, err := New(cfg, nil).Generate(context.Background(), "HELLO")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := len(got()); sentence != "Hello!" || n != 2 {
		t.Errorf("sentence %q after %d requests", sentence, n)
	}
}

func TestGenerate_SingleAttemptByDefault(t *testing.T) {
	srv, got := chatStub(t, "ASL gloss: HELLO", "Hello!")
	_, err := New(enabled(srv.URL), nil).Generate(context.Background(), "HELLO")
	var ue *UnusableError
	if !errors.As(err, &ue) || ue.Failure != FailureEcho {
		t.Fatalf("expected echo failure, got %v", err)
	}
	if n := len(got()); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestGenerate_TransportErrorNotRetried(t *testing.T) {
	fc := &fakeChat{err: errors.New("boom")}
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	if _, err := NewWithService(cfg, fc, nil).Generate(context.Background(), "HELLO"); err == nil {
		t.Fatal("expected error")
	}
	if fc.calls != 1 {
		t.Errorf("expected 1 call, got %d", fc.calls)
	}
}

// #endregion generate-tests

// #region check-tests

func TestClean(t *testing.T) {
	cases := map[string]string{
		`  "Where is the restroom?"  `: "Where is the restroom?",
		`'Hi there.'`:                  "Hi there.",
		`"'nested'"`:                   "nested",
		`"`:                            `"`,
		`I said "hi"`:                  `I said "hi"`,
		"":                             "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectFailure(t *testing.T) {
	cases := []struct {
		gloss, sentence string
		want            FailureType
	}{
		{"HELLO", "", FailureEmpty},
		{"HELLO", "I'm not able to translate this.", FailureRefusal},
		{"HELLO", "Please provide more context.", FailureRefusal},
		{"HELLO", "ASL gloss: HELLO", FailureEcho},
		{"HELLO", "HELLO", FailureEcho},
		{"SORRY LATE", "I'm sorry, but I'm late.", FailureNone},
		{"HELLO", "Hello!", FailureNone},
	}
	for _, tc := range cases {
		if got := DetectFailure(tc.gloss, tc.sentence); got != tc.want {
			t.Errorf("DetectFailure(%q, %q) = %q, want %q", tc.gloss, tc.sentence, got, tc.want)
		}
	}
}

func TestEnabled(t *testing.T) {
	var g *Generator
	if g.Enabled() {
		t.Error("nil generator reported enabled")
	}
	if NewWithService(DefaultConfig(), &fakeChat{}, nil).Enabled() {
		t.Error("default config should be disabled")
	}
	cfg := NewWithService(Config{Enabled: true}, &fakeChat{}, nil).Config()
	if cfg.Model != "llama3" || cfg.Timeout != 20*time.Second || cfg.MaxAttempts != 1 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

// #endregion check-tests
