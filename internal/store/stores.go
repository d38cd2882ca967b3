package store

import (
	"fmt"

	"github.com/yola1107/twisted/internal/model"
)

// Stores 进程内实体仓库, 每种实体一个实例, 仅在事件循环中访问
type Stores struct {
	Players  PlayerRepo
	Cards    Repo[*model.Card]
	Decks    Repo[*model.Deck]
	Tables   Repo[*model.Table]
	Lobbies  Repo[*model.Lobby]
	Games    Repo[*model.GameState]
	Sessions *Sessions
}

func NewStores() *Stores {
	return &Stores{
		Players:  NewPlayerRepo(),
		Cards:    NewRepo[*model.Card](),
		Decks:    NewRepo[*model.Deck](),
		Tables:   NewRepo[*model.Table](),
		Lobbies:  NewRepo[*model.Lobby](),
		Games:    NewRepo[*model.GameState](),
		Sessions: NewSessions(),
	}
}

// Counts is a point-in-time population of every repository.
type Counts struct {
	Players, Cards, Decks, Tables, Lobbies, Games int
}

func (c Counts) String() string {
	return fmt.Sprintf("players:%d cards:%d decks:%d tables:%d lobbies:%d games:%d",
		c.Players, c.Cards, c.Decks, c.Tables, c.Lobbies, c.Games)
}

func (s *Stores) Counts() Counts {
	return Counts{
		Players: s.Players.Len(),
		Cards:   s.Cards.Len(),
		Decks:   s.Decks.Len(),
		Tables:  s.Tables.Len(),
		Lobbies: s.Lobbies.Len(),
		Games:   s.Games.Len(),
	}
}

func (s *Stores) SaveCards(cards ...*model.Card) {
	for _, c := range cards {
		s.Cards.Save(c.ID, c)
	}
}

func (s *Stores) RemoveCards(cards ...*model.Card) {
	for _, c := range cards {
		s.Cards.Remove(c.ID)
	}
}

func (s *Stores) SavePlayer(p *model.Player) {
	s.Players.Save(p.ID, p)
	s.SaveCards(p.Hand().Cards()...)
}

// ReleasePlayer drops the player, its hand cards and its session binding.
func (s *Stores) ReleasePlayer(p *model.Player) {
	s.RemoveCards(p.Hand().Clear()...)
	s.Players.Remove(p.ID)
	s.Sessions.UnbindPlayer(p.ID)
}

func (s *Stores) SaveDeck(d *model.Deck) {
	s.Decks.Save(d.ID, d)
	s.SaveCards(d.Cards()...)
}

func (s *Stores) ReleaseDeck(d *model.Deck) {
	s.RemoveCards(d.Release()...)
	s.Decks.Remove(d.ID)
}

func (s *Stores) SaveTable(t *model.Table) {
	s.Tables.Save(t.ID, t)
	s.SaveCards(t.Cards()...)
}

func (s *Stores) ReleaseTable(t *model.Table) {
	s.RemoveCards(t.Clear()...)
	s.Tables.Remove(t.ID)
}

// Register installs a whole game graph: state, table, lobby, deck, players and every card.
// Existing entries with the same ids are replaced.
func (s *Stores) Register(g *model.GameState) {
	s.Games.Save(g.ID, g)
	if g.Table != nil {
		s.SaveTable(g.Table)
	}
	l := g.Lobby
	if l == nil {
		return
	}
	s.Lobbies.Save(l.ID, l)
	if l.Deck != nil {
		s.SaveDeck(l.Deck)
	}
	for _, p := range l.Players() {
		s.SavePlayer(p)
	}
}
