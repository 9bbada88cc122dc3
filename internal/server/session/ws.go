// Package session adapts a gorilla websocket connection to the registry
// Session and the router FrameReader.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Close codes sent to clients.
const (
	CloseSuperseded = 4000
	CloseGoingAway  = websocket.CloseGoingAway
	CloseInternal   = websocket.CloseInternalServerErr
)

var ErrClosed = errors.New("session closed")

// WSConn is one authenticated websocket. Writes are serialized because a
// gorilla connection supports only one concurrent writer.
type WSConn struct {
	id           string
	identity     string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewWSConn(conn *websocket.Conn, identity string, writeTimeout time.Duration, maxFrameBytes int64) *WSConn {
	if maxFrameBytes > 0 {
		conn.SetReadLimit(maxFrameBytes)
	}
	return &WSConn{
		id:           uuid.NewString(),
		identity:     identity,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *WSConn) ID() string       { return c.id }
func (c *WSConn) Identity() string { return c.identity }

// Send writes v as a JSON text frame. The write gives up at the earlier of
// ctx's deadline and the configured write timeout.
func (c *WSConn) Send(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// ReadFrame blocks for the next data frame. Any error means the session is over.
func (c *WSConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close sends a close frame with code and reason and drops the connection.
// Calling it more than once is harmless.
func (c *WSConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *WSConn) deadline(ctx context.Context) time.Time {
	var d time.Time
	if c.writeTimeout > 0 {
		d = time.Now().Add(c.writeTimeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}
