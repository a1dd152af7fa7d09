package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/orchestrator"
)

const (
	sessionBuffer = 64
	writeWait     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// #region session-handler

// handleSessionGET runs one camera session over a websocket. Frames and resets
// are fed to a dedicated pipeline in arrival order; invalid frames are
// answered with an error message and never reach the gate.
func (s *Server) handleSessionGET(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID, pipeline := s.newPipeline()
	logger := s.logger.With(zap.String("session", sessionID))
	logger.Info("session opened", zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	// unblock ReadMessage when the server shuts down
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	in := make(chan orchestrator.Input, sessionBuffer)
	out := make(chan orchestrator.Event, sessionBuffer)
	errs := make(chan string, sessionBuffer)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		orchestrator.NewSession(pipeline).Run(ctx, in, out)
	}()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writeLoop(conn, sessionID, out, errs, logger)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Warn("session read failed", zap.Error(err))
			}
			break
		}
		input, err := DecodeInput(data, s.deps.Producer)
		if err != nil {
			select {
			case errs <- err.Error():
			default:
			}
			continue
		}
		select {
		case in <- input:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	close(in)
	<-runDone
	<-writeDone
	logger.Info("session closed", zap.Int64("frames", pipeline.Frames()))
}

// writeLoop is the only writer on conn. It ends when out is closed. A client
// that stops reading fails the write after writeWait and is dropped.
func (s *Server) writeLoop(conn *websocket.Conn, sessionID string, out <-chan orchestrator.Event, errs <-chan string, logger *zap.Logger) {
	write := func(m EventMessage) bool {
		b, err := json.Marshal(m)
		if err != nil {
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			logger.Debug("session write failed", zap.Error(err))
			return false
		}
		return true
	}

	ok := write(EventMessage{Type: "session", SessionID: sessionID})
	for {
		select {
		case ev, open := <-out:
			if !open {
				return
			}
			if ok {
				ok = write(eventMessage(ev))
			}
		case detail := <-errs:
			if ok {
				ok = write(EventMessage{Type: "error", Detail: detail})
			}
		}
	}
}

// #endregion session-handler

// #region session-pipeline

// newPipeline builds a pipeline for one websocket session, registering it in
// the transcript store when one is configured.
func (s *Server) newPipeline() (string, *orchestrator.Pipeline) {
	p := orchestrator.NewPipeline(s.deps.Pipeline, s.deps.Router, s.logger)
	if s.deps.Deliverer != nil {
		p.WithDeliverer(s.deps.Deliverer)
	}
	if s.deps.Store == nil {
		return uuid.New().String(), p
	}
	cfgJSON, _ := json.Marshal(s.deps.Pipeline)
	id, err := s.deps.Store.StartSession(string(cfgJSON), "websocket")
	if err != nil {
		s.logger.Warn("start transcript session failed", zap.Error(err))
		return uuid.New().String(), p
	}
	return id, p.WithRecorder(s.deps.Store.Recorder(id))
}

// #endregion session-pipeline
