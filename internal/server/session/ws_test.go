package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair starts a server that wraps its side of the connection in a WSConn
// and returns it together with the dialed client side.
func pair(t *testing.T, maxFrame int64) (*WSConn, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ready := make(chan *WSConn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ready <- NewWSConn(conn, "alice", time.Second, maxFrame)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case s := <-ready:
		return s, client
	case <-time.After(2 * time.Second):
		t.Fatal("server side never upgraded")
		return nil, nil
	}
}

func TestWSConn_SendAndRead(t *testing.T) {
	s, client := pair(t, 0)
	assert.Equal(t, "alice", s.Identity())
	assert.NotEmpty(t, s.ID())

	require.NoError(t, s.Send(context.Background(), map[string]string{"hello": "world"}))
	var got map[string]string
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "world", got["hello"])

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"to":"bob"}`)))
	frame, err := s.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"bob"}`, string(frame))
}

func TestWSConn_CloseSendsCodeAndStopsWrites(t *testing.T) {
	s, client := pair(t, 0)

	require.NoError(t, s.Close(CloseSuperseded, "superseded"))
	require.NoError(t, s.Close(CloseSuperseded, "again"))

	_, _, err := client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, CloseSuperseded), "got %v", err)

	assert.ErrorIs(t, s.Send(context.Background(), "late"), ErrClosed)
}

func TestWSConn_SendHonoursCancelledContext(t *testing.T) {
	s, _ := pair(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "x"), context.Canceled)
}

func TestWSConn_ReadLimit(t *testing.T) {
	s, client := pair(t, 16)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))
	_, err := s.ReadFrame()
	assert.ErrorIs(t, err, websocket.ErrReadLimit)
}
