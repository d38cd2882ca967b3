package biz

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/samber/lo"
	"github.com/yola1107/kratos/v2/errors"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/model"
)

// 服务端事件
const (
	EvUserConnected      = "UserConnected"
	EvLobbyCreated       = "LobbyCreated"
	EvUserJoinedLobby    = "UserJoinedLobby"
	EvUserLeftLobby      = "UserLeftLobby"
	EvMessageSent        = "MessageSent"
	EvUserReady          = "UserReady"
	EvGameStarted        = "GameStarted"
	EvChangeTurn         = "ChangeTurn"
	EvPlayedCard         = "PlayedCard"
	EvPickedCard         = "PickedCard"
	EvDiscardedCard      = "DiscardedCard"
	EvCardsMatched       = "CardsMatched"
	EvGameEnded          = "GameEnded"
	EvUserDisconnected   = "UserDisconnected"
	EvGameStateSaved     = "GameStateSaved"
	EvGameStateRetrieved = "GameStateRetrieved"
	EvPong               = "Pong"
	EvError              = "error"
)

// Event is one outbound message. Private events go to the acting session only;
// the others go to every session bound to a player in To.
type Event struct {
	Name    string
	Private bool
	To      []uuid.UUID
	Data    any
}

func private(name string, data any) Event {
	return Event{Name: name, Private: true, Data: data}
}

// broadcast addresses every player seated in l at the time of the call.
func broadcast(l *model.Lobby, name string, data any) Event {
	return Event{Name: name, To: playerIDs(l), Data: data}
}

func playerIDs(l *model.Lobby) []uuid.UUID {
	if l == nil {
		return nil
	}
	return lo.Map(l.Players(), func(p *model.Player, _ int) uuid.UUID { return p.ID })
}

/*
	views
*/

type CardView struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Value         int       `json:"value,omitempty"`
	Graphic       string    `json:"graphic"`
	SpecialEffect string    `json:"specialEffect,omitempty"`
}

type PlayerView struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Ready    bool       `json:"ready"`
	Online   bool       `json:"online"`
	LobbyID  uuid.UUID  `json:"lobbyId"`
	Cards    []CardView `json:"hand"`
}

type MessageView struct {
	ID       string    `json:"id"`
	PlayerID uuid.UUID `json:"playerId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

type LobbyView struct {
	ID           uuid.UUID     `json:"id"`
	Host         uuid.UUID     `json:"host"`
	Players      []PlayerView  `json:"users"`
	Messages     []MessageView `json:"messages"`
	DeckSize     int           `json:"deckSize"`
	GameStateID  uuid.UUID     `json:"gameStateId"`
	LastActivity time.Time     `json:"lastActivityTime"`
}

type GameView struct {
	ID                 uuid.UUID  `json:"id"`
	TableID            uuid.UUID  `json:"tableId"`
	DisposedCards      []CardView `json:"disposedCards"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	CurrentPlayerID    uuid.UUID  `json:"currentPlayerId"`
	Status             string     `json:"gameStatus"`
	Light              bool       `json:"light"`
	Lobby              *LobbyView `json:"lobby,omitempty"`
}

func cardView(c *model.Card) CardView {
	v := CardView{ID: c.ID, Type: c.Kind.String(), Graphic: c.Graphic}
	switch c.Kind {
	case model.KindRegular:
		v.Value = c.Value
	case model.KindTwisted:
		v.SpecialEffect = c.Effect.String()
	}
	return v
}

func cardViews(cards []*model.Card) []CardView {
	return lo.Map(cards, func(c *model.Card, _ int) CardView { return cardView(c) })
}

func playerView(p *model.Player) PlayerView {
	var v PlayerView
	if err := copier.Copy(&v, p); err != nil {
		log.Errorf("player view copy failed. %s err=%v", p.Desc(), err)
	}
	v.Cards = cardViews(p.Hand().Cards())
	return v
}

func lobbyView(l *model.Lobby) *LobbyView {
	if l == nil {
		return nil
	}
	v := &LobbyView{
		ID:           l.ID,
		Players:      lo.Map(l.Players(), func(p *model.Player, _ int) PlayerView { return playerView(p) }),
		GameStateID:  l.GameStateID,
		LastActivity: l.LastActivity,
	}
	if err := copier.Copy(&v.Messages, l.Messages()); err != nil {
		log.Errorf("lobby messages copy failed. %s err=%v", l.Desc(), err)
	}
	if l.Host != nil {
		v.Host = l.Host.ID
	}
	if l.Deck != nil {
		v.DeckSize = l.Deck.Len()
	}
	return v
}

func gameView(g *model.GameState) GameView {
	v := GameView{
		ID:                 g.ID,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		Status:             g.Status.String(),
		Light:              g.Light,
		Lobby:              lobbyView(g.Lobby),
	}
	if g.Table != nil {
		v.TableID = g.Table.ID
		v.DisposedCards = cardViews(g.Table.Cards())
	}
	if p := g.CurrentPlayer(); p != nil {
		v.CurrentPlayerID = p.ID
	}
	return v
}

/*
	event data
*/

type UserConnectedData struct {
	Player PlayerView `json:"user"`
}

type LobbyData struct {
	PlayerID uuid.UUID  `json:"playerId"`
	Lobby    *LobbyView `json:"lobby"`
}

type MessageSentData struct {
	LobbyID uuid.UUID   `json:"lobbyId"`
	Message MessageView `json:"message"`
}

type GameData struct {
	Game GameView `json:"gameState"`
}

type ChangeTurnData struct {
	GameStateID        uuid.UUID `json:"gameStateId"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	CurrentPlayerID    uuid.UUID `json:"currentPlayerId"`
}

type PlayedCardData struct {
	PlayerID       uuid.UUID  `json:"playerId"`
	TargetPlayerID *uuid.UUID `json:"targetPlayerId,omitempty"`
	Card           CardView   `json:"card"`
	Game           GameView   `json:"gameState"`
}

type PickedCardData struct {
	PlayerPreviousID uuid.UUID `json:"playerPreviousId"`
	PlayerNewID      uuid.UUID `json:"playerNewId"`
	FromOpponent     bool      `json:"fromOpponent"`
	Card             CardView  `json:"card"`
	Game             GameView  `json:"gameState"`
}

type DiscardedCardData struct {
	PlayerID uuid.UUID `json:"playerId"`
	Card     CardView  `json:"card"`
	Game     GameView  `json:"gameState"`
}

type CardsMatchedData struct {
	PlayerID uuid.UUID  `json:"playerId"`
	Cards    []CardView `json:"cards"`
	Game     GameView   `json:"gameState"`
}

type GameEndedData struct {
	GameStateID uuid.UUID   `json:"gameStateId"`
	Winner      *PlayerView `json:"winner"`
}

type GameStateSavedData struct {
	GameStateID uuid.UUID `json:"gameStateId"`
}

type UserDisconnectedData struct {
	PlayerID    uuid.UUID  `json:"playerId"`
	LobbyID     *uuid.UUID `json:"lobbyId,omitempty"`
	GameStateID *uuid.UUID `json:"gameStateId,omitempty"`
}

type PongData struct {
	Time time.Time `json:"time"`
}

type ErrorData struct {
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Code    int32             `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorEvent converts any error into the private error event.
func ErrorEvent(err error) Event {
	e := errors.FromError(err)
	return private(EvError, ErrorData{
		Message: e.Message,
		Reason:  e.Reason,
		Code:    e.Code,
		Details: e.Metadata,
	})
}

func gameEnded(g *model.GameState) Event {
	data := GameEndedData{GameStateID: g.ID}
	if w := g.Winner(); w != nil {
		v := playerView(w)
		data.Winner = &v
	}
	return broadcast(g.Lobby, EvGameEnded, data)
}
