// Package validator holds the stateless assertions run by every command before
// it mutates anything. Each assertion passes or fails with exactly one error kind.
// Commands call them in a fixed order: existence, then membership, then turn
// order and other permissions.
package validator

import (
	"github.com/google/uuid"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/pkg/codes"
)

func md(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

/*
	existence
*/

func Player(s *store.Stores, id uuid.UUID) (*model.Player, error) {
	p, ok := s.Players.Find(id)
	if !ok {
		return nil, codes.ErrPlayerNotFound.WithMetadata(md("playerId", id.String()))
	}
	return p, nil
}

func Lobby(s *store.Stores, id uuid.UUID) (*model.Lobby, error) {
	l, ok := s.Lobbies.Find(id)
	if !ok {
		return nil, codes.ErrLobbyNotFound.WithMetadata(md("lobbyId", id.String()))
	}
	return l, nil
}

func GameState(s *store.Stores, id uuid.UUID) (*model.GameState, error) {
	g, ok := s.Games.Find(id)
	if !ok {
		return nil, codes.ErrGameStateNotFound.WithMetadata(md("gameStateId", id.String()))
	}
	return g, nil
}

func Card(s *store.Stores, id uuid.UUID) (*model.Card, error) {
	c, ok := s.Cards.Find(id)
	if !ok {
		return nil, codes.ErrCardNotFound.WithMetadata(md("cardId", id.String()))
	}
	return c, nil
}

func Table(s *store.Stores, id uuid.UUID) (*model.Table, error) {
	t, ok := s.Tables.Find(id)
	if !ok {
		return nil, codes.ErrTableNotFound.WithMetadata(md("tableId", id.String()))
	}
	return t, nil
}

// Deck requires the lobby to carry a deck that is still registered.
func Deck(s *store.Stores, l *model.Lobby) (*model.Deck, error) {
	if l.Deck == nil {
		return nil, codes.ErrDeckNotFound.WithMetadata(md("lobbyId", l.ID.String()))
	}
	d, ok := s.Decks.Find(l.Deck.ID)
	if !ok {
		return nil, codes.ErrDeckNotFound.WithMetadata(md("deckId", l.Deck.ID.String()))
	}
	return d, nil
}

// GameOfLobby requires g to be bound to l. A game without a lobby is never valid
// for turn-based operations.
func GameOfLobby(g *model.GameState, l *model.Lobby) error {
	if g.Lobby == nil || g.Lobby.ID != l.ID {
		return codes.ErrGameStateNotFound.WithMetadata(md("gameStateId", g.ID.String(), "lobbyId", l.ID.String()))
	}
	return nil
}

// TableOfGame requires t to be the disposal pile of g.
func TableOfGame(g *model.GameState, t *model.Table) error {
	if g.Table == nil || g.Table.ID != t.ID {
		return codes.ErrTableNotFound.WithMetadata(md("tableId", t.ID.String(), "gameStateId", g.ID.String()))
	}
	return nil
}

func LobbyAbsent(s *store.Stores, id uuid.UUID) error {
	if _, ok := s.Lobbies.Find(id); ok {
		return codes.ErrLobbyAlreadyExists.WithMetadata(md("lobbyId", id.String()))
	}
	return nil
}

func UsernameFree(s *store.Stores, name string) error {
	if _, ok := s.Players.FindByUsername(name); ok {
		return codes.ErrFailedUserConnection.WithMetadata(md("username", name))
	}
	return nil
}

/*
	membership
*/

func InLobby(l *model.Lobby, p *model.Player) error {
	if !l.Has(p.ID) {
		return codes.ErrPlayerNotInLobby.WithMetadata(md("playerId", p.ID.String(), "lobbyId", l.ID.String()))
	}
	return nil
}

// Free requires p to sit in no lobby.
func Free(p *model.Player) error {
	if p.InLobby() {
		return codes.ErrPlayerAlreadyInLobby.WithMetadata(md("playerId", p.ID.String(), "lobbyId", p.LobbyID.String()))
	}
	return nil
}

// CardInHand assumes both card and player were already resolved.
func CardInHand(p *model.Player, c *model.Card) error {
	if !p.Hand().Contains(c.ID) {
		return codes.ErrCardNotInHand.WithMetadata(md("playerId", p.ID.String(), "cardId", c.ID.String()))
	}
	return nil
}

/*
	state / permission
*/

func InProgress(g *model.GameState) error {
	if !g.InProgress() {
		return codes.ErrGameNotInProgress.WithMetadata(md("gameStateId", g.ID.String(), "status", g.Status.String()))
	}
	return nil
}

func Started(g *model.GameState) error {
	if g.Status == model.StNotStarted {
		return codes.ErrGameNotInProgress.WithMetadata(md("gameStateId", g.ID.String(), "status", g.Status.String()))
	}
	return nil
}

func TurnOf(g *model.GameState, p *model.Player) error {
	if !g.IsTurnOf(p.ID) {
		return codes.ErrNotYourTurn.WithMetadata(md("playerId", p.ID.String(), "gameStateId", g.ID.String()))
	}
	return nil
}

// HasEnded requires the win condition to hold already.
func HasEnded(g *model.GameState) error {
	if !g.IsGameOver() {
		return codes.ErrGameHasNotEnded.WithMetadata(md("gameStateId", g.ID.String()))
	}
	return nil
}

func HasPlayers(l *model.Lobby, least int) error {
	if l.Len() == 0 || l.Len() < least {
		return codes.ErrNoPlayersInGame.WithMetadata(md("lobbyId", l.ID.String()))
	}
	return nil
}

func AllReady(l *model.Lobby) error {
	if !l.AllReady() {
		return codes.ErrPlayersNotReady.WithMetadata(md("lobbyId", l.ID.String()))
	}
	return nil
}

// NoLiveGame rejects a lobby already bound to a game that has not ended.
func NoLiveGame(s *store.Stores, l *model.Lobby) error {
	if l.GameStateID == uuid.Nil {
		return nil
	}
	if g, ok := s.Games.Find(l.GameStateID); ok && g.Status != model.StEnded {
		return codes.ErrGameAlreadyInProgress.WithMetadata(md("lobbyId", l.ID.String(), "gameStateId", g.ID.String()))
	}
	return nil
}

func Distinct(a, b *model.Card) error {
	if a.ID == b.ID {
		return codes.ErrCardsDoNotMatch.WithMetadata(md("card1Id", a.ID.String(), "card2Id", b.ID.String()))
	}
	return nil
}

func Match(a, b *model.Card) error {
	if !a.Matches(b) {
		return codes.ErrCardsDoNotMatch.WithMetadata(md("card1Id", a.ID.String(), "card2Id", b.ID.String()))
	}
	return nil
}
