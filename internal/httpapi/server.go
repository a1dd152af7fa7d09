// Package httpapi exposes the sentence router over HTTP and streams whole
// camera sessions over a websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/generate"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/signals"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/transcript"
)

const maxBodyBytes = 1 << 20

// #region types

// Deps are the collaborators a Server needs. Only Router is required.
type Deps struct {
	Router    *router.Router
	Pipeline  orchestrator.Config
	Producer  *signals.Producer      // decodes score frames; nil rejects them
	Store     *transcript.Store      // records websocket sessions when set
	Deliverer orchestrator.Deliverer // receives phrases completed on websocket sessions
	Generator *generate.Generator    // model sentences for /generate; nil or disabled uses templates
	Logger    *zap.Logger
}

// Server holds the routes and the lifetime of websocket sessions.
type Server struct {
	deps   Deps
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	ASLWords []string `json:"aslWords"`
}

// RespondRequest is the body of POST /respond.
type RespondRequest struct {
	Gloss string `json:"gloss"`
}

// SentenceResponse is returned by /generate and /respond.
type SentenceResponse struct {
	ASL      string            `json:"asl"`
	Sentence string            `json:"sentence"`
	Intent   string            `json:"intent"`
	Slots    map[string]string `json:"slots"`
	Template string            `json:"template"`
	Source   string            `json:"source"` // template | model
}

// Sentence sources.
const (
	SourceTemplate = "template"
	SourceModel    = "model"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// #endregion types

// #region constructor

// New creates a server.
func New(deps Deps) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		deps:   deps,
		logger: logging.OrNop(deps.Logger),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.GET("/", s.handleRootGET)
	r.POST("/generate", s.handleGeneratePOST)
	r.POST("/respond", s.handleRespondPOST)
	r.GET("/templates", s.handleTemplatesGET)
	r.PUT("/templates", s.handleTemplatesPUT)
	r.GET("/session", s.handleSessionGET)
	if s.deps.Store != nil {
		r.GET("/phrases", s.handlePhrasesGET)
	}
	r.GlobalOPTIONS = http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})
	return cors(r)
}

// #endregion constructor

// #region run

// Run serves on addr until ctx ends, then shuts down and closes open
// websocket sessions.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

// Close ends all open websocket sessions.
func (s *Server) Close() {
	s.cancel()
}

// #endregion run

// #region handlers

func (s *Server) handleRootGET(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(rw, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handleGeneratePOST(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	asl := router.Gloss(req.ASLWords)
	if asl == "" {
		writeError(rw, http.StatusBadRequest, "aslWords cannot be empty")
		return
	}
	out := sentenceResponse(asl, s.deps.Router.Respond(req.ASLWords))
	if s.deps.Generator.Enabled() {
		sentence, err := s.deps.Generator.Generate(r.Context(), asl)
		if err != nil {
			s.logger.Warn("generation failed, using template", zap.String("asl", asl), zap.Error(err))
		} else {
			out.Sentence = sentence
			out.Source = SourceModel
		}
	}
	writeJSON(rw, http.StatusOK, out)
}

func (s *Server) handleRespondPOST(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req RespondRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	gloss := strings.TrimSpace(req.Gloss)
	if gloss == "" {
		writeError(rw, http.StatusBadRequest, "gloss cannot be empty")
		return
	}
	resp := s.deps.Router.RespondGloss(gloss)
	writeJSON(rw, http.StatusOK, sentenceResponse(gloss, resp))
}

func (s *Server) handleTemplatesGET(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(rw, http.StatusOK, s.deps.Router.Bank().Snapshot())
}

func (s *Server) handleTemplatesPUT(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(rw, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Router.Bank().Load(payload); err != nil {
		var de *templates.DecodeError
		if errors.As(err, &de) {
			writeError(rw, http.StatusBadRequest, de.Error())
			return
		}
		writeError(rw, http.StatusInternalServerError, err.Error())
		return
	}
	n := len(s.deps.Router.Bank().Snapshot())
	s.logger.Info("templates replaced", zap.Int("intents", n))
	writeJSON(rw, http.StatusOK, map[string]int{"intents": n})
}

func (s *Server) handlePhrasesGET(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(rw, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	rows, err := s.deps.Store.ListPhrases(r.URL.Query().Get("session"), limit)
	if err != nil {
		s.logger.Error("list phrases failed", zap.Error(err))
		writeError(rw, http.StatusInternalServerError, "list phrases failed")
		return
	}
	if rows == nil {
		rows = []transcript.PhraseRow{}
	}
	writeJSON(rw, http.StatusOK, rows)
}

// #endregion handlers

// #region helpers

func sentenceResponse(asl string, resp router.Response) SentenceResponse {
	slots := map[string]string(resp.Slots)
	if slots == nil {
		slots = map[string]string{}
	}
	return SentenceResponse{
		ASL:      asl,
		Sentence: resp.Sentence,
		Intent:   resp.IntentKey,
		Slots:    slots,
		Template: resp.Template,
		Source:   SourceTemplate,
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(rw http.ResponseWriter, code int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, code int, detail string) {
	writeJSON(rw, code, errorBody{Detail: detail})
}

// cors allows any origin.
func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		hdr := rw.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type")
		h.ServeHTTP(rw, r)
	})
}

// #endregion helpers
