package api

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is an open chat socket. Send may be called while another goroutine
// is blocked in Receive.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *Conn) Send(to, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(map[string]string{"to": to, "content": content})
}

func (c *Conn) Receive() (*Envelope, error) {
	var e Envelope
	if err := c.ws.ReadJSON(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
