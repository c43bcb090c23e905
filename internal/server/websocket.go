// File: internal/server/websocket.go
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
)

// The UI may be served from a dev server on another origin; corsMiddleware allows "*" as well.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames.
	maxMessageSize = 512
)

// wsClient streams progress events to one WebSocket connection.
type wsClient struct {
	conn        *websocket.Conn
	events      <-chan schemas.ProgressEvent
	unsubscribe func()
	logger      *zap.Logger
}

// handleProgress upgrades the connection and streams every event reported to
// the hub until either side goes away.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Warn("Failed to upgrade connection to WebSocket.", zap.Error(err))
		return
	}

	events, unsubscribe := s.hub.Subscribe()
	client := &wsClient{
		conn:        conn,
		events:      events,
		unsubscribe: unsubscribe,
		logger:      s.logger.With(zap.String("remote_addr", r.RemoteAddr)),
	}
	client.logger.Debug("Progress client connected.")

	go client.writePump()
	client.readPump()
}

// readPump consumes control frames until the connection fails, then
// unsubscribes, which in turn stops the writePump.
func (c *wsClient) readPump() {
	defer func() {
		c.unsubscribe()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("Failed to set initial read deadline.", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Progress connection closed unexpectedly.", zap.Error(err))
			} else {
				c.logger.Debug("Progress client disconnected.")
			}
			return
		}
	}
}

// writePump owns all writes to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed or client unsubscribed.
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Debug("Failed to write progress event.", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
