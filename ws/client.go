package ws

import (
	"encoding/json"
	"log"

	"aviatorServer/config"
	"aviatorServer/engine"

	"github.com/gorilla/websocket"
)

// Client is one live websocket connection.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// writePump drains the send channel onto the socket. One per client; the
// only goroutine allowed to write to the connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("❌ Write error for client %s: %v", c.ID, err)
			return
		}
	}
}

// readPump parses inbound commands and hands them to the game loop.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Read error for client %s: %v", c.ID, err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}

		cmd, err := commandFor(c.ID, msg)
		if err != nil {
			c.sendError(err.Error())
			continue
		}

		c.hub.game.Enqueue(cmd)
	}
}

// sendError reports a transport-level fault straight back to the client,
// without a round trip through the game loop.
func (c *Client) sendError(message string) {
	data, err := json.Marshal(ServerMessage{
		Event: engine.EvError,
		Data:  map[string]any{"message": message},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
