package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/response"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is sent for every received message.
type WebSocketResponse struct {
	Type       string `json:"type"`
	Status     string `json:"status"` // "completed" or "error"
	StatusCode int    `json:"status_code"`
	Result     any    `json:"result,omitempty"`
	RequestID  string `json:"request_id"`
}

// decodeWebSocketHandler upgrades the connection and treats every text
// message as one decode request body.
func (s *Server) decodeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if messageType != websocket.TextMessage {
			continue
		}
		s.sendWebSocketResponse(conn, s.handleWebSocketMessage(ctx, data))
	}
}

// handleWebSocketMessage runs one message through the pipeline.
func (s *Server) handleWebSocketMessage(ctx context.Context, data []byte) WebSocketResponse {
	resp := WebSocketResponse{Type: "decode_response", RequestID: uuid.NewString()}

	event, ok := pipeline.EventFromBody(data)
	if !ok {
		recordRejected("websocket")
		resp.Status = "error"
		resp.StatusCode = http.StatusBadRequest
		resp.Result = response.Err(response.ReasonNoData, "")
		return resp
	}

	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, secondsToDuration(s.timeoutSec))
		defer cancel()
	}

	res := s.pipeline.Handle(ctx, event)
	if res.StatusCode == http.StatusBadRequest {
		recordRejected("websocket")
	} else {
		recordOutcome("websocket", res.Outcome)
	}
	slog.Info("websocket request finished", "request_id", resp.RequestID, "status", res.StatusCode, "found", res.Outcome.Found)

	resp.Status = "completed"
	if res.StatusCode != http.StatusOK {
		resp.Status = "error"
	}
	resp.StatusCode = res.StatusCode
	resp.Result = res.Body
	return resp
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, resp WebSocketResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
