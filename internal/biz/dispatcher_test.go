package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/twisted/internal/work"
)

type sent struct {
	session string
	event   string
}

type recordingSink struct {
	mu  sync.Mutex
	out []sent
}

func (s *recordingSink) Send(sessionID string, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, sent{session: sessionID, event: ev.Name})
}

func (s *recordingSink) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.out...)
}

func TestDeliver(t *testing.T) {
	h := newHarness(t, Options{})
	sink := &recordingSink{}
	d := NewDispatcher(nil, nil, h.e)
	d.SetSink(sink)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	h.s.Sessions.Bind("s-a", a)
	h.s.Sessions.Bind("s-b", b)

	d.deliver(Actor{SessionID: "s-a"}, []Event{
		{Name: "one", To: []uuid.UUID{a, b, c}},
		{Name: "two", Private: true},
		{Name: "three", To: []uuid.UUID{b}},
	})
	assert.Equal(t, []sent{
		{"s-a", "one"},
		{"s-b", "one"},
		{"s-a", "two"},
		{"s-b", "three"},
		{"s-a", "three"},
	}, sink.all(), "unbound players are skipped and the actor always gets a copy")
}

func TestDispatcherRoundTrip(t *testing.T) {
	lp := work.NewLoop(16)
	lp.Start()
	defer lp.Stop()
	pool := work.NewPool(2)
	require.NoError(t, pool.Start())
	defer pool.Stop()

	h := newHarness(t, Options{})
	sink := &recordingSink{}
	d := NewDispatcher(lp, pool, h.e)
	d.SetSink(sink)

	d.Submit(Actor{SessionID: "s-a"}, CmdUserConnect, []byte(`{"username":"alice"}`))
	d.Submit(Actor{SessionID: "s-a"}, CmdStartGame, []byte(`{}`))
	d.Submit(Actor{SessionID: "s-a"}, CmdSaveGameState, []byte(`{"gameStateId":"`+uuid.NewString()+`"}`))
	assert.Eventually(t, func() bool { return len(sink.all()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []sent{
		{"s-a", EvUserConnected},
		{"s-a", EvError},
		{"s-a", EvError},
	}, sink.all())

	counts, err := d.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Players)

	d.SessionClosed("s-a")
	assert.Eventually(t, func() bool {
		counts, err := d.Counts(context.Background())
		return err == nil && counts.Players == 0
	}, 2*time.Second, 10*time.Millisecond)

	lp.Stop()
	d.Submit(Actor{SessionID: "s-a"}, CmdPing, nil)
	last := sink.all()
	assert.Equal(t, sent{"s-a", EvError}, last[len(last)-1], "a stopped loop answers with ServerShutdown")
}

func TestDispatcherAsync(t *testing.T) {
	lp := work.NewLoop(16)
	lp.Start()
	defer lp.Stop()
	pool := work.NewPool(2)
	require.NoError(t, pool.Start())
	defer pool.Stop()

	h := newHarness(t, Options{})
	g, cur, waiting := h.game()
	sink := &recordingSink{}
	d := NewDispatcher(lp, pool, h.e)
	d.SetSink(sink)

	d.Submit(Actor{SessionID: "s-" + cur.Username}, CmdSaveGameState, []byte(`{"gameStateId":"`+g.ID.String()+`"}`))
	assert.Eventually(t, func() bool { return len(sink.all()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []sent{
		{"s-" + cur.Username, EvGameStateSaved},
		{"s-" + waiting.Username, EvGameStateSaved},
	}, sink.all())
}
