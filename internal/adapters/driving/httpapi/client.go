package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

// client is a middleman between one websocket connection and the hub.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	owner string
}

// readPump discards client messages and unregisters on disconnect.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("ws: read error: %v", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// serveWS upgrades the request and subscribes the connection to the
// owner's status events.
func serveWS(hub *Hub, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, owner string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("ws: upgrade: %v", err)
		return
	}

	c := &client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), owner: owner}
	if !hub.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
