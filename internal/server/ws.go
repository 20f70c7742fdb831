package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lainlives/lainllm-go/internal/models"
	"github.com/lainlives/lainllm-go/internal/pipeline"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsMaxMessageLen = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The endpoint serves trusted front-end clients on the same host.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsError is sent for malformed frames; the connection stays open.
type wsError struct {
	Error string `json:"error"`
}

// handleWS serves a persistent chat session. Each inbound JSON frame is
// a generateRequest; each outbound frame is a pipeline.Result.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageLen)
	s.logger.Info("websocket session opened", "remote", conn.RemoteAddr().String())

	for {
		var req generateRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket session ended", "error", err)
			}
			return
		}

		if req.Message == "" {
			s.writeWS(conn, wsError{Error: "message is required"})
			continue
		}
		s.logger.Debug("websocket message", "sender", req.SenderID, "text", truncate(req.Message, 200))

		includeMemory := req.IncludeMemory == nil || *req.IncludeMemory
		result := s.deps.Orchestrator.Generate(r.Context(), pipeline.Request{
			Message: models.Message{
				Text:      req.Message,
				SenderID:  req.SenderID,
				Timestamp: time.Now(),
			},
			IncludeMemory: includeMemory,
		})

		if !s.writeWS(conn, result) {
			return
		}
	}
}

// writeWS sends one JSON frame, reporting whether the connection is
// still usable.
func (s *Server) writeWS(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
		return false
	}
	return true
}
