package model

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobbyWith(names ...string) *Lobby {
	l := NewLobby(uuid.New(), nil, time.Now())
	for _, n := range names {
		l.AddPlayer(NewPlayer(n))
	}
	return l
}

func TestStartTwoPlayers(t *testing.T) {
	rules := BaseRules()
	lobby := newLobbyWith("alice", "bob")
	deck := rules.BuildDeck()
	require.Equal(t, 47, deck.Len())
	deck.Shuffle(rand.New(rand.NewSource(3)))

	g := NewGameState(lobby, NewTable())
	g.Start(deck, rules.HandSize)

	assert.Equal(t, StInProgress, g.Status)
	for _, p := range lobby.Players() {
		assert.Equal(t, 3, p.Hand().Len())
	}
	assert.Equal(t, 41, deck.Len())
	// equal hands: first by join order
	assert.Equal(t, 0, g.CurrentPlayerIndex)
	assert.Equal(t, "alice", g.CurrentPlayer().Username)
}

func TestStartSeatsFewestCards(t *testing.T) {
	lobby := newLobbyWith("a", "b", "c")
	deck := NewDeck([]*Card{NewRegular(1), NewRegular(2), NewRegular(3), NewRegular(4), NewRegular(5)})

	g := NewGameState(lobby, NewTable())
	g.Start(deck, 2)

	// a:2 b:2 c:1
	assert.Equal(t, 2, g.CurrentPlayerIndex)
	assert.Equal(t, "c", g.CurrentPlayer().Username)
}

func TestNextTurnCyclic(t *testing.T) {
	lobby := newLobbyWith("a", "b", "c")
	g := NewGameState(lobby, NewTable())
	g.Status = StInProgress

	for _, start := range []int{0, 1, 2} {
		g.CurrentPlayerIndex = start
		for k := 1; k <= 10; k++ {
			g.NextTurn()
			assert.Equal(t, (start+k)%3, g.CurrentPlayerIndex)
		}
	}
}

func TestTurnAfterPlayerLeaves(t *testing.T) {
	tests := []struct {
		name    string
		current int
		leaver  string
		want    string
	}{
		{"leaver before holder", 2, "a", "c"},
		{"leaver after holder", 0, "c", "a"},
		{"holder leaves mid list", 1, "b", "c"},
		{"holder leaves at end wraps", 2, "c", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lobby := newLobbyWith("a", "b", "c")
			g := NewGameState(lobby, NewTable())
			g.Status = StInProgress
			g.CurrentPlayerIndex = tt.current

			var leaver *Player
			for _, p := range lobby.Players() {
				if p.Username == tt.leaver {
					leaver = p
				}
			}
			_, idx := lobby.RemovePlayer(leaver.ID)
			require.GreaterOrEqual(t, idx, 0)
			g.OnPlayerRemoved(idx)

			assert.Equal(t, tt.want, g.CurrentPlayer().Username)
			g.NextTurn()
			assert.Less(t, g.CurrentPlayerIndex, 2, "modulo uses the live player count")
		})
	}
}

func TestWinDetection(t *testing.T) {
	lobby := newLobbyWith("a", "b", "c")
	g := NewGameState(lobby, NewTable())
	players := lobby.Players()
	for _, p := range players {
		p.Hand().Add(NewRegular(1), NewRegular(2))
	}
	assert.False(t, g.IsGameOver())

	players[2].Hand().Clear()
	assert.True(t, g.IsGameOver())
	assert.Same(t, players[2], g.Winner())

	// tie at zero goes to the lowest join order
	players[1].Hand().Clear()
	assert.Same(t, players[1], g.Winner())
}

func TestNoLobby(t *testing.T) {
	g := &GameState{ID: uuid.New(), Table: NewTable()}
	assert.Nil(t, g.CurrentPlayer())
	assert.False(t, g.IsTurnOf(uuid.New()))
	assert.False(t, g.IsGameOver())
	assert.Nil(t, g.Winner())
	g.NextTurn()
	assert.Equal(t, 0, g.CurrentPlayerIndex)
}

func TestToggleLight(t *testing.T) {
	g := NewGameState(nil, NewTable())
	assert.False(t, g.Light)
	g.ToggleLight()
	assert.True(t, g.Light)
	g.ToggleLight()
	assert.False(t, g.Light)
}

func TestLobbyHost(t *testing.T) {
	lobby := newLobbyWith("a", "b")
	players := lobby.Players()
	assert.Same(t, players[0], lobby.Host)

	lobby.RemovePlayer(players[0].ID)
	assert.Same(t, players[1], lobby.Host)
	assert.False(t, players[0].InLobby())

	lobby.RemovePlayer(players[1].ID)
	assert.Nil(t, lobby.Host)
	assert.True(t, lobby.Empty())

	_, idx := lobby.RemovePlayer(uuid.New())
	assert.Equal(t, -1, idx)
}
