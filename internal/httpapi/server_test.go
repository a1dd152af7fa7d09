package httpapi

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/generate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/signals"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

// #region helpers

func newTestServer(t *testing.T, deps Deps) (*Server, *httptest.Server) {
	t.Helper()
	if deps.Router == nil {
		deps.Router = router.New(templates.NewDefaultBank(), rand.New(rand.NewPCG(7, 7)))
	}
	if deps.Pipeline == (orchestrator.Config{}) {
		deps.Pipeline = orchestrator.DefaultConfig()
	}
	s := New(deps)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// #endregion helpers

// #region rest-tests

func TestRoot(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != 200 || body["message"] != "ok" {
		t.Errorf("unexpected %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS header")
	}
}

func TestGenerate(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	resp, body := postJSON(t, ts.URL+"/generate", `{"aslWords":["where","bathroom"]}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if body["asl"] != "where bathroom" {
		t.Errorf("asl = %v", body["asl"])
	}
	if body["intent"] != "askLocation" {
		t.Errorf("intent = %v", body["intent"])
	}
	slots := body["slots"].(map[string]interface{})
	if slots["PLACE"] != "the restroom" {
		t.Errorf("slots = %v", slots)
	}
	if !strings.Contains(body["sentence"].(string), "the restroom") {
		t.Errorf("sentence = %v", body["sentence"])
	}
}

// llmStub answers every chat request with reply, or with status when non-zero.
func llmStub(t *testing.T, status int, reply string) *generate.Generator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			http.Error(w, "upstream down", status)
			return
		}
		json.NewEncoder(w).Encode(generate.ChatResponse{Message: &generate.Message{Role: "assistant", Content: reply}})
	}))
	t.Cleanup(srv.Close)
	cfg := generate.DefaultConfig()
	cfg.URL = srv.URL
	cfg.Timeout = time.Second
	cfg.Enabled = true
	return generate.New(cfg, nil)
}

func TestGenerate_TemplateSource(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	_, body := postJSON(t, ts.URL+"/generate", `{"aslWords":["HELLO"]}`)
	if body["source"] != SourceTemplate {
		t.Errorf("source = %v", body["source"])
	}
}

func TestGenerate_ModelSentence(t *testing.T) {
	_, ts := newTestServer(t, Deps{Generator: llmStub(t, 0, `"Where is the bathroom?"`)})
	resp, body := postJSON(t, ts.URL+"/generate", `{"aslWords":["WHERE","BATHROOM"]}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if body["sentence"] != "Where is the bathroom?" || body["source"] != SourceModel {
		t.Errorf("unexpected body %v", body)
	}
	// intent and slots still come from the router
	if body["intent"] != "askLocation" {
		t.Errorf("intent = %v", body["intent"])
	}
}

func TestGenerate_ModelFailureFallsBack(t *testing.T) {
	cases := map[string]*generate.Generator{
		"upstream 500": llmStub(t, http.StatusInternalServerError, ""),
		"empty reply":  llmStub(t, 0, "  "),
		"quotes only":  llmStub(t, 0, `""`),
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			_, ts := newTestServer(t, Deps{Generator: g})
			resp, body := postJSON(t, ts.URL+"/generate", `{"aslWords":["WHERE","BATHROOM"]}`)
			if resp.StatusCode != 200 {
				t.Fatalf("status %d: %v", resp.StatusCode, body)
			}
			if body["source"] != SourceTemplate || !strings.Contains(body["sentence"].(string), "the restroom") {
				t.Errorf("expected template fallback, got %v", body)
			}
		})
	}
}

func TestGenerate_Empty(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	for _, payload := range []string{`{"aslWords":[]}`, `{"aslWords":["  ",""]}`, `{}`} {
		resp, body := postJSON(t, ts.URL+"/generate", payload)
		if resp.StatusCode != http.StatusBadRequest || body["detail"] != "aslWords cannot be empty" {
			t.Errorf("%s: got %d %v", payload, resp.StatusCode, body)
		}
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	resp, body := postJSON(t, ts.URL+"/generate", `{"aslWords":`)
	if resp.StatusCode != http.StatusBadRequest || body["detail"] == nil {
		t.Errorf("got %d %v", resp.StatusCode, body)
	}
}

func TestRespond(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	resp, body := postJSON(t, ts.URL+"/respond", `{"gloss":"i want apple juice"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if body["intent"] != "want" {
		t.Errorf("intent = %v", body["intent"])
	}
	resp, body = postJSON(t, ts.URL+"/respond", `{"gloss":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for blank gloss, got %d %v", resp.StatusCode, body)
	}
}

func TestTemplatesPUT(t *testing.T) {
	s, ts := newTestServer(t, Deps{})

	put := func(body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/templates", bytes.NewBufferString(body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := put(`{"greet":["Howdy!"],"unknown":["?"]}`); resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := s.deps.Router.Respond([]string{"HELLO"}).Sentence; got != "Howdy!" {
		t.Errorf("expected reloaded template, got %q", got)
	}

	if resp := put(`{not json`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if got := s.deps.Router.Respond([]string{"HELLO"}).Sentence; got != "Howdy!" {
		t.Errorf("table should be kept after bad payload, got %q", got)
	}

	resp, err := http.Get(ts.URL + "/templates")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var snap map[string][]string
	json.NewDecoder(resp.Body).Decode(&snap)
	if diff := cmp.Diff(map[string][]string{"greet": {"Howdy!"}, "unknown": {"?"}}, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPhrases_OnlyWithStore(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	resp, err := http.Get(ts.URL + "/phrases")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without store, got %d", resp.StatusCode)
	}
}

// #endregion rest-tests

// #region session-tests

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) EventMessage {
	t.Helper()
	var m EventMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestSession_WordsAndPhrase(t *testing.T) {
	store, err := transcript.NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, ts := newTestServer(t, Deps{Store: store})
	conn := dial(t, ts)
	defer conn.Close()

	hello := readEvent(t, conn)
	if hello.Type != "session" || hello.SessionID == "" {
		t.Fatalf("expected session greeting, got %+v", hello)
	}

	frames := []string{
		`{"word":"THANK-YOU","prob1":0.9,"prob2":0.05,"t":0}`,
		`{"word":"THANK-YOU","prob1":0.9,"prob2":0.05,"t":33}`,
		`{"word":"THANK-YOU","prob1":0.9,"prob2":0.05,"t":66}`,
		`{"word":"THANK-YOU","prob1":0.3,"prob2":0.5,"t":99}`,
	}
	for i := 0; i < 8; i++ {
		frames = append(frames, `{"noSignal":true,"t":`+string(rune('1'+i))+`000}`)
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// error messages and pipeline events are written from different
	// channels, so their relative order is not fixed.
	var word, bad, phrase EventMessage
	for phrase.Type == "" || bad.Type == "" {
		m := readEvent(t, conn)
		switch m.Type {
		case "word":
			word = m
		case "error":
			bad = m
		case "phrase":
			phrase = m
		}
	}
	if word.Word != "THANK-YOU" || word.T != 66 {
		t.Fatalf("unexpected word event %+v", word)
	}
	if !strings.Contains(bad.Detail, "prob2") {
		t.Fatalf("expected validation error, got %+v", bad)
	}
	if phrase.Intent != "thanks" {
		t.Fatalf("unexpected phrase event %+v", phrase)
	}
	if diff := cmp.Diff([]string{"THANK-YOU"}, phrase.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	// The recorder writes every frame that reached the gate.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := store.Frames(hello.SessionID)
		if err != nil {
			t.Fatalf("Frames: %v", err)
		}
		if len(rows) == 11 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 11 recorded frames, got %d", len(rows))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSession_ScoresNeedLabels(t *testing.T) {
	_, ts := newTestServer(t, Deps{})
	conn := dial(t, ts)
	defer conn.Close()
	readEvent(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"scores":[1,2,3],"t":0}`))
	m := readEvent(t, conn)
	if m.Type != "error" || m.Detail != errNoLabels.Error() {
		t.Fatalf("unexpected %+v", m)
	}
}

func TestSession_ScoresWithLabels(t *testing.T) {
	p := signals.NewProducer(signals.LabelMap{0: "YES", 1: "NO"})
	_, ts := newTestServer(t, Deps{Producer: p})
	conn := dial(t, ts)
	defer conn.Close()
	readEvent(t, conn)

	for i := 0; i < 3; i++ {
		msg := `{"scores":[5,0],"t":` + string(rune('0'+i)) + `}`
		conn.WriteMessage(websocket.TextMessage, []byte(msg))
	}
	m := readEvent(t, conn)
	if m.Type != "word" || m.Word != "YES" {
		t.Fatalf("unexpected %+v", m)
	}
}

func TestSession_ResetDiscardsPhrase(t *testing.T) {
	store, err := transcript.NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, ts := newTestServer(t, Deps{Store: store})
	conn := dial(t, ts)
	defer conn.Close()
	hello := readEvent(t, conn)

	msgs := []string{
		`{"word":"HELLO","prob1":0.9,"prob2":0.05,"t":0}`,
		`{"word":"HELLO","prob1":0.9,"prob2":0.05,"t":33}`,
		`{"word":"HELLO","prob1":0.9,"prob2":0.05,"t":66}`,
		`{"reset":true,"t":100}`,
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if m := readEvent(t, conn); m.Type != "word" || m.Word != "HELLO" {
		t.Fatalf("expected word event, got %+v", m)
	}
	m := readEvent(t, conn)
	if m.Type != "reset" || m.T != 100 {
		t.Fatalf("expected reset event, got %+v", m)
	}
	if diff := cmp.Diff([]string{"HELLO"}, m.Words); diff != "" {
		t.Errorf("discarded words mismatch (-want +got):\n%s", diff)
	}

	// The reset is recorded after the three frames.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := store.Frames(hello.SessionID)
		if err != nil {
			t.Fatalf("Frames: %v", err)
		}
		if len(rows) == 4 {
			if !rows[3].IsReset() {
				t.Fatalf("expected reset row last, got %+v", rows[3])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 4 recorded rows, got %d", len(rows))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// #endregion session-tests

// #region frame-tests

func TestDecodeInput(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
		noSig   bool
		reset   bool
		word    string
	}{
		{"classification", `{"word":"HI","prob1":0.8,"prob2":0.1,"t":5}`, false, false, false, "HI"},
		{"no signal", `{"noSignal":true,"t":5}`, false, true, false, ""},
		{"reset", `{"reset":true,"t":5}`, false, false, true, ""},
		{"missing word", `{"prob1":0.8,"prob2":0.1}`, true, false, false, ""},
		{"missing prob", `{"word":"HI","prob1":0.8}`, true, false, false, ""},
		{"prob above one", `{"word":"HI","prob1":1.2,"prob2":0.1}`, true, false, false, ""},
		{"negative prob", `{"word":"HI","prob1":0.5,"prob2":-0.1}`, true, false, false, ""},
		{"prob2 exceeds prob1", `{"word":"HI","prob1":0.2,"prob2":0.5}`, true, false, false, ""},
		{"not json", `hello`, true, false, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := DecodeInput([]byte(tc.in), nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			f := in.Frame
			if in.Reset != tc.reset || f.NoSignal != tc.noSig || f.Word != tc.word {
				t.Errorf("unexpected input %+v", in)
			}
			if f.At.UnixMilli() != 5 {
				t.Errorf("expected t=5, got %d", f.At.UnixMilli())
			}
		})
	}
}

func TestDecodeInput_DefaultsTimestamp(t *testing.T) {
	before := time.Now().UnixMilli()
	in, err := DecodeInput([]byte(`{"noSignal":true}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if in.Frame.At.UnixMilli() < before {
		t.Errorf("expected receive-time stamp, got %d < %d", in.Frame.At.UnixMilli(), before)
	}
}

// #endregion frame-tests
