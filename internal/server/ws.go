package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Norgate-AV/labrun/internal/execution"
	"github.com/Norgate-AV/labrun/internal/language"
)

const (
	// maxMessageSize allows for JSON escaping, which can take up to 6 bytes
	// (\u00XX) for each byte of code or input
	maxMessageSize = 6*(maxCodeLength+maxInputLength) + 4096

	// maxInFlightPerConn caps the requests one connection can have queued
	maxInFlightPerConn = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Reply is sent for every WebSocket execute message
type Reply struct {
	ID     string            `json:"id"`
	Result *execution.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// wsSession serializes writes to one connection
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsSession) send(reply Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket runs each incoming message as an execute request. Up to
// maxInFlightPerConn requests from one connection may be in the dispatcher
// queue together; replies carry the request id.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := &wsSession{conn: conn}
	slots := make(chan struct{}, maxInFlightPerConn)
	var wg sync.WaitGroup

	s.logger.Debug("WebSocket connected", "remote", c.Request.RemoteAddr)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket closed unexpectedly", "err", err)
			}
			break
		}

		var req ExecuteRequest
		if err := json.Unmarshal(message, &req); err != nil {
			_ = session.send(Reply{Error: "invalid request: " + err.Error()})
			continue
		}

		if err := req.Validate(); err != nil {
			_ = session.send(Reply{ID: req.ID, Error: err.Error()})
			continue
		}

		// Stop reading until one of this connection's requests settles
		slots <- struct{}{}

		wg.Add(1)
		go func(req ExecuteRequest) {
			defer wg.Done()
			defer func() { <-slots }()

			reply := Reply{ID: req.ID}

			result, err := s.dispatcher.Execute(ctx, language.Normalize(req.Language), req.Code, req.Input, req.options())
			if err != nil {
				reply.Error = err.Error()
			} else {
				reply.Result = result
			}

			if err := session.send(reply); err != nil {
				s.logger.Debug("WebSocket write failed", "id", req.ID, "err", err)
			}
		}(req)
	}

	// Stop waiting on queued requests; they still run and get cached
	cancel()
	wg.Wait()

	s.logger.Debug("WebSocket disconnected", "remote", c.Request.RemoteAddr)
}
