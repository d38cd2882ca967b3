package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/yola1107/twisted/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

/*
	快照文档, 以 GameState.ID 为键整体覆盖写入

	{id, table:{id,disposedCards[]}, currentPlayerIndex, gameStatus, light,
	 lobby?:{id,lastActivityTime,users[],messages[],deck?:{id,cards[]},host}}
*/

type Card struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Value         int       `json:"value"`
	Graphic       string    `json:"graphic"`
	SpecialEffect string    `json:"specialEffect,omitempty"`
}

type Table struct {
	ID            uuid.UUID `json:"id"`
	DisposedCards []Card    `json:"disposedCards"`
}

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Ready    bool      `json:"ready"`
	Hand     []Card    `json:"hand"`
}

type Message struct {
	ID       string    `json:"id"`
	PlayerID uuid.UUID `json:"playerId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

type Deck struct {
	ID    uuid.UUID `json:"id"`
	Cards []Card    `json:"cards"`
}

type Lobby struct {
	ID               uuid.UUID `json:"id"`
	LastActivityTime time.Time `json:"lastActivityTime"`
	Users            []User    `json:"users"`
	Messages         []Message `json:"messages"`
	Deck             *Deck     `json:"deck,omitempty"`
	Host             uuid.UUID `json:"host"`
}

type Document struct {
	ID                 uuid.UUID `json:"id"`
	Table              Table     `json:"table"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	GameStatus         string    `json:"gameStatus"`
	Light              bool      `json:"light"`
	Lobby              *Lobby    `json:"lobby,omitempty"`
}

func Encode(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &doc, nil
}

/*
	serialize: live graph -> document
*/

func fromCard(c *model.Card) Card {
	out := Card{ID: c.ID, Type: c.Kind.String(), Graphic: c.Graphic}
	switch c.Kind {
	case model.KindRegular:
		out.Value = c.Value
	case model.KindTwisted:
		out.SpecialEffect = c.Effect.String()
	case model.KindBlackHole:
	default:
		panic(fmt.Sprintf("unhandled card kind %v", c.Kind))
	}
	return out
}

func fromCards(cards []*model.Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, fromCard(c))
	}
	return out
}

// Serialize captures g and, transitively, its table and lobby.
func Serialize(g *model.GameState) *Document {
	doc := &Document{
		ID:                 g.ID,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		GameStatus:         g.Status.String(),
		Light:              g.Light,
	}
	if g.Table != nil {
		doc.Table = Table{ID: g.Table.ID, DisposedCards: fromCards(g.Table.Cards())}
	}
	if l := g.Lobby; l != nil {
		lobby := &Lobby{
			ID:               l.ID,
			LastActivityTime: l.LastActivity,
			Users:            make([]User, 0, l.Len()),
			Messages:         make([]Message, 0),
		}
		for _, p := range l.Players() {
			lobby.Users = append(lobby.Users, User{
				ID:       p.ID,
				Username: p.Username,
				Ready:    p.Ready,
				Hand:     fromCards(p.Hand().Cards()),
			})
		}
		for _, m := range l.Messages() {
			lobby.Messages = append(lobby.Messages, Message(m))
		}
		if l.Deck != nil {
			lobby.Deck = &Deck{ID: l.Deck.ID, Cards: fromCards(l.Deck.Cards())}
		}
		if l.Host != nil {
			lobby.Host = l.Host.ID
		}
		doc.Lobby = lobby
	}
	return doc
}

/*
	reconstruct: document -> fresh graph
*/

func toCard(c Card) (*model.Card, error) {
	kind, err := model.ParseKind(c.Type)
	if err != nil {
		return nil, err
	}
	var out *model.Card
	switch kind {
	case model.KindRegular:
		out = model.NewRegular(c.Value)
	case model.KindTwisted:
		effect, err := model.ParseEffect(c.SpecialEffect)
		if err != nil {
			return nil, err
		}
		out = model.NewTwisted(effect)
	case model.KindBlackHole:
		out = model.NewBlackHole()
	default:
		panic(fmt.Sprintf("unhandled card kind %v", kind))
	}
	out.ID = c.ID
	if c.Graphic != "" {
		out.Graphic = c.Graphic
	}
	return out, nil
}

func toCards(in []Card) ([]*model.Card, error) {
	out := make([]*model.Card, 0, len(in))
	for _, c := range in {
		card, err := toCard(c)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
		out = append(out, card)
	}
	return out, nil
}

// Reconstruct builds a new object graph from doc. Nothing is shared with any live graph.
func Reconstruct(doc *Document) (*model.GameState, error) {
	status, err := model.ParseStatus(doc.GameStatus)
	if err != nil {
		return nil, err
	}
	disposed, err := toCards(doc.Table.DisposedCards)
	if err != nil {
		return nil, err
	}
	table := model.NewTableWithID(doc.Table.ID)
	table.Dispose(disposed...)

	g := &model.GameState{
		ID:                 doc.ID,
		Table:              table,
		CurrentPlayerIndex: doc.CurrentPlayerIndex,
		Status:             status,
		Light:              doc.Light,
	}
	if doc.Lobby == nil {
		return g, nil
	}

	lobby := model.NewLobby(doc.Lobby.ID, nil, doc.Lobby.LastActivityTime)
	lobby.GameStateID = g.ID
	for _, u := range doc.Lobby.Users {
		p := model.NewPlayerWithID(u.ID, u.Username)
		p.Ready = u.Ready
		p.Online = false
		hand, err := toCards(u.Hand)
		if err != nil {
			return nil, err
		}
		p.Hand().Add(hand...)
		lobby.AddPlayer(p)
		if p.ID == doc.Lobby.Host {
			lobby.Host = p
		}
	}
	for _, m := range doc.Lobby.Messages {
		lobby.AppendMessage(model.Message(m))
	}
	if d := doc.Lobby.Deck; d != nil {
		cards, err := toCards(d.Cards)
		if err != nil {
			return nil, err
		}
		lobby.Deck = model.NewDeckWithID(d.ID, cards)
	}
	g.Lobby = lobby
	return g, nil
}
