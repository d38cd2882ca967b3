package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

/*
	Status 游戏状态

	NotStarted --start--> InProgress --(turns, moves)--> InProgress --isGameOver && end--> Ended
*/

type Status int32

const (
	StNotStarted Status = iota
	StInProgress
	StEnded
)

var statusNames = map[Status]string{
	StNotStarted: "NotStarted",
	StInProgress: "InProgress",
	StEnded:      "Ended",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", s)
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if strings.EqualFold(name, s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown game status %q", s)
}

// GameState is the turn/status/light record of one game bound to a lobby.
type GameState struct {
	ID                 uuid.UUID
	Table              *Table
	CurrentPlayerIndex int
	Status             Status
	Light              bool
	Lobby              *Lobby
}

func NewGameState(lobby *Lobby, table *Table) *GameState {
	return &GameState{
		ID:     uuid.New(),
		Table:  table,
		Status: StNotStarted,
		Lobby:  lobby,
	}
}

func (g *GameState) players() []*Player {
	if g.Lobby == nil {
		return nil
	}
	return g.Lobby.players
}

// Start deals handSize cards round-robin from deck and seats the player with
// the fewest cards (first in join order on ties) as the first turn holder.
func (g *GameState) Start(deck *Deck, handSize int) {
	players := g.players()
	deck.Distribute(players, handSize)
	g.CurrentPlayerIndex = fewestCardsIndex(players)
	g.Status = StInProgress
}

func fewestCardsIndex(players []*Player) int {
	if len(players) == 0 {
		return 0
	}
	first := lo.MinBy(players, func(a, b *Player) bool {
		return a.Hand().Len() < b.Hand().Len()
	})
	return lo.IndexOf(players, first)
}

func (g *GameState) InProgress() bool {
	return g.Status == StInProgress
}

// CurrentPlayer is nil when no lobby is bound or the index is out of range.
func (g *GameState) CurrentPlayer() *Player {
	if g.Lobby == nil {
		return nil
	}
	return g.Lobby.PlayerAt(g.CurrentPlayerIndex)
}

func (g *GameState) IsTurnOf(id uuid.UUID) bool {
	p := g.CurrentPlayer()
	return p != nil && p.ID == id
}

// NextTurn advances modulo the live player count.
func (g *GameState) NextTurn() {
	n := len(g.players())
	if n == 0 {
		g.CurrentPlayerIndex = 0
		return
	}
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % n
}

// OnPlayerRemoved keeps the turn on the same holder after the player at idx left,
// or hands it to the next seat when the holder itself left.
func (g *GameState) OnPlayerRemoved(idx int) {
	n := len(g.players())
	switch {
	case n == 0:
		g.CurrentPlayerIndex = 0
	case idx < g.CurrentPlayerIndex:
		g.CurrentPlayerIndex--
	case g.CurrentPlayerIndex >= n:
		g.CurrentPlayerIndex = 0
	}
}

// IsGameOver is true iff some seated player holds no cards.
func (g *GameState) IsGameOver() bool {
	return lo.SomeBy(g.players(), func(p *Player) bool { return p.Hand().Empty() })
}

// Winner returns the player with the fewest cards; ties go to the lowest join order.
func (g *GameState) Winner() *Player {
	players := g.players()
	if len(players) == 0 {
		return nil
	}
	return lo.MinBy(players, func(a, b *Player) bool {
		return a.Hand().Len() < b.Hand().Len()
	})
}

func (g *GameState) End() {
	g.Status = StEnded
}

func (g *GameState) ToggleLight() {
	g.Light = !g.Light
}

func (g *GameState) Desc() string {
	lobby := uuid.Nil
	if g.Lobby != nil {
		lobby = g.Lobby.ID
	}
	return fmt.Sprintf("(Game:%s lobby:%s st:%v curr:%d light:%v table:%d)",
		g.ID, lobby, g.Status, g.CurrentPlayerIndex, g.Light, g.Table.Len())
}
