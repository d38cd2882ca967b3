package ws

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	opened atomic.Int32
	closed atomic.Int32
	mu     sync.Mutex
	frames [][]byte
}

func (h *echoHandler) OnSessionOpen(*Session)  { h.opened.Add(1) }
func (h *echoHandler) OnSessionClose(*Session) { h.closed.Add(1) }
func (h *echoHandler) OnMessage(sess *Session, data []byte) {
	h.mu.Lock()
	h.frames = append(h.frames, data)
	h.mu.Unlock()
	_ = sess.Send(bytes.ToUpper(data))
}

func startServer(t *testing.T, h Handler, opts ...ServerOption) *Server {
	t.Helper()
	srv := NewServer(h, append([]ServerOption{Address("127.0.0.1:0"), Path("/ws")}, opts...)...)
	_, err := srv.Endpoint()
	require.NoError(t, err)
	go func() { _ = srv.Start(context.Background()) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func TestServerEcho(t *testing.T) {
	h := &echoHandler{}
	srv := startServer(t, h)
	u, _ := srv.Endpoint()
	assert.Equal(t, "ws", u.Scheme)
	assert.Equal(t, "/ws", u.Path)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"ping"}`)))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	assert.Equal(t, `{"COMMAND":"PING"}`, string(data))
	assert.Equal(t, int32(1), srv.Sessions().Len())

	_ = conn.Close()
	assert.Eventually(t, func() bool {
		return h.closed.Load() == 1 && srv.Sessions().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), h.opened.Load())
}

func TestServerStopClosesSessions(t *testing.T) {
	h := &echoHandler{}
	srv := startServer(t, h)
	u, _ := srv.Endpoint()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.Equal(t, int32(1), h.closed.Load())

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Force Closure", ce.Text)
}

func TestMaxConnLimit(t *testing.T) {
	srv := startServer(t, &echoHandler{}, MaxConnLimit(0))
	u, _ := srv.Endpoint()

	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessionManager(t *testing.T) {
	h := &echoHandler{}
	srv := startServer(t, h)
	u, _ := srv.Endpoint()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	mgr := srv.Sessions()
	require.Eventually(t, func() bool { return mgr.Len() == 1 }, time.Second, 10*time.Millisecond)

	var id string
	mgr.Range(func(s *Session) { id = s.ID() })
	assert.Regexp(t, `^NANO-.{10}$`, id)
	sess := mgr.Get(id)
	require.NotNil(t, sess)
	assert.Nil(t, mgr.Get("missing"))

	assert.True(t, sess.Close(false))
	assert.False(t, sess.Close(true), "second close is a no-op")
	assert.ErrorIs(t, sess.Send([]byte("late")), ErrSessionClosed)
	assert.ErrorIs(t, sess.TrySend([]byte("late")), ErrSessionClosed)
	assert.Equal(t, int32(0), mgr.Len())
	assert.Equal(t, int32(1), h.closed.Load())
}

func TestCloseReason(t *testing.T) {
	s := &Session{config: &SessionConfig{ReadDeadline: time.Minute}}
	s.lastActive.Store(time.Now())
	assert.Equal(t, "Normal Closure", s.closeReason(false))
	assert.Equal(t, "Force Closure", s.closeReason(true))

	s.lastActive.Store(time.Now().Add(-2 * time.Minute))
	assert.Equal(t, "Force Closure (Heartbeat timeout)", s.closeReason(true))
}

func TestAdvertised(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	_, port, _ := net.SplitHostPort(lis.Addr().String())

	assert.Equal(t, lis.Addr().String(), advertised(":0", lis))
	assert.Equal(t, "127.0.0.1:"+port, advertised("0.0.0.0:0", lis))
	assert.Equal(t, "game.local:"+port, advertised("game.local:0", lis))
}
