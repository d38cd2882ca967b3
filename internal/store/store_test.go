package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/twisted/internal/model"
)

func TestRepo(t *testing.T) {
	r := NewRepo[*model.Table]()
	tb := model.NewTable()

	_, ok := r.Find(tb.ID)
	assert.False(t, ok)

	r.Save(tb.ID, tb)
	got, ok := r.Find(tb.ID)
	require.True(t, ok)
	assert.Same(t, tb, got)
	assert.Equal(t, 1, r.Len())

	visited := 0
	r.Range(func(id uuid.UUID, v *model.Table) bool {
		visited++
		return true
	})
	assert.Equal(t, 1, visited)

	assert.True(t, r.Remove(tb.ID))
	assert.False(t, r.Remove(tb.ID))
	assert.Equal(t, 0, r.Len())
}

func TestPlayerRepoUsernameIndex(t *testing.T) {
	r := NewPlayerRepo()
	alice := model.NewPlayer("alice")
	r.Save(alice.ID, alice)

	got, ok := r.FindByUsername("alice")
	require.True(t, ok)
	assert.Same(t, alice, got)

	// a reconstructed copy with the same id replaces the entry
	again := model.NewPlayerWithID(alice.ID, "alice")
	r.Save(again.ID, again)
	got, _ = r.FindByUsername("alice")
	assert.Same(t, again, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(alice.ID)
	_, ok = r.FindByUsername("alice")
	assert.False(t, ok)
}

func TestRegisterAndRelease(t *testing.T) {
	s := NewStores()
	rules := model.BaseRules()

	lobby := model.NewLobby(uuid.New(), model.NewPlayer("a"), time.Now())
	lobby.AddPlayer(model.NewPlayer("b"))
	lobby.Deck = rules.BuildDeck()
	g := model.NewGameState(lobby, model.NewTable())
	g.Start(lobby.Deck, rules.HandSize)

	s.Register(g)
	assert.Equal(t, Counts{Players: 2, Cards: 47, Decks: 1, Tables: 1, Lobbies: 1, Games: 1}, s.Counts())

	for _, p := range lobby.Players() {
		s.ReleasePlayer(p)
	}
	s.ReleaseDeck(lobby.Deck)
	s.ReleaseTable(g.Table)
	s.Games.Remove(g.ID)
	s.Lobbies.Remove(lobby.ID)
	assert.Equal(t, Counts{}, s.Counts())
}

func TestSessions(t *testing.T) {
	s := NewSessions()
	p1, p2 := uuid.New(), uuid.New()

	s.Bind("s1", p1)
	got, ok := s.PlayerOf("s1")
	require.True(t, ok)
	assert.Equal(t, p1, got)

	// reconnect on a new session moves the binding
	s.Bind("s2", p1)
	_, ok = s.PlayerOf("s1")
	assert.False(t, ok)
	sess, _ := s.SessionOf(p1)
	assert.Equal(t, "s2", sess)

	s.Bind("s2", p2)
	_, ok = s.SessionOf(p1)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.UnbindPlayer(p2)
	assert.Equal(t, 0, s.Len())
}
