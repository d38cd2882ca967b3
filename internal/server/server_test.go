package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/lifecycle"
	"github.com/yola1107/twisted/internal/snapshot"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/internal/transport/ws"
	"github.com/yola1107/twisted/internal/work"
)

func TestRuntimeStartStop(t *testing.T) {
	c := conf.DefaultConfig()
	lp := NewLoop(c.Loop)
	pool := NewPool(c.Loop)
	sched, cleanup := NewScheduler(lp)
	defer cleanup()

	s := store.NewStores()
	reaper := lifecycle.NewReaper(s, snapshot.NewStore(snapshot.NewMemoryRepo(), time.Second), pool)
	m := lifecycle.NewManagerFromConf(c.Lifecycle, reaper, s, sched)
	rt := NewRuntime(lp, pool, sched, m, reaper)

	require.NoError(t, rt.Start(context.Background()))
	assert.Eventually(t, func() bool { return sched.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, c.Loop.PoolSize, pool.Status().Capacity)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Stop(ctx))
	assert.Equal(t, 0, sched.Len())
	assert.ErrorIs(t, lp.PostCtx(context.Background(), func() {}), work.ErrLoopStopped)
}

type nopHandler struct{}

func (nopHandler) OnSessionOpen(*ws.Session)     {}
func (nopHandler) OnSessionClose(*ws.Session)    {}
func (nopHandler) OnMessage(*ws.Session, []byte) {}

func TestNewWebsocketServer(t *testing.T) {
	c := conf.DefaultConfig().Server
	c.Websocket.Addr = "127.0.0.1:0"
	c.Websocket.Path = "/play"

	srv := NewWebsocketServer(c, nopHandler{})
	u, err := srv.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "/play", u.Path)
	assert.Contains(t, u.Host, "127.0.0.1:")
	assert.NoError(t, srv.Stop(context.Background()))
}
