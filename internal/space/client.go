package space

import (
	"sync"

	"github.com/gorilla/websocket"

	"spaces/internal/models"
)

// Client is one live connection's presence in the coordinator. The registry
// keys rosters and session bindings by *Client, so pointer identity is the
// connection identity.
type Client struct {
	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.WSFrame)
}

func NewClient(conn *websocket.Conn) *Client { return &Client{Conn: conn} }

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send delivers a frame to this connection. Sends are best-effort: a write
// failure on a dying connection is ignored, the read loop will notice the
// disconnect and tear the session down.
func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}
