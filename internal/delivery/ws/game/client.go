package ws_game

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Client is one websocket connection. roomCode and userID stay zero until
// the connection sends join_room; only the hub goroutine mutates them.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	connID   string
	roomCode string
	userID   int64
}

func newClient(hub *Hub, conn *websocket.Conn, connID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		connID: connID,
	}
}

// trySend drops the message when the client's buffer is full. Slow readers
// lose frames rather than stall the room.
func (c *Client) trySend(message []byte) {
	select {
	case c.send <- message:
	default:
		c.hub.logger.Warn("send buffer full, dropping frame",
			"conn_id", c.connID, "room", c.roomCode)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close", "conn_id", c.connID, "error", err)
			}
			break
		}
		c.hub.inbound <- inboundMessage{client: c, raw: raw}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
