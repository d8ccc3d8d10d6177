package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber. Inbound frames are read only to service pongs and
// detect disconnects; their content is ignored.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	prefix string
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("prefix", c.prefix).Msg("subscriber read error")
			}
			return
		}
	}
}

// writePump owns all writes to conn. One frame per message so every frame is a JSON document.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
				c.hub.logger.Debug().Err(err).Str("prefix", c.prefix).Msg("subscriber write error")
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}
