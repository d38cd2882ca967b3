package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Message is one entry of a lobby's append-only chat log.
type Message struct {
	ID       string
	PlayerID uuid.UUID
	Username string
	Text     string
	SentAt   time.Time
}

type Lobby struct {
	ID           uuid.UUID
	Host         *Player
	Deck         *Deck
	LastActivity time.Time
	GameStateID  uuid.UUID // uuid.Nil when no game is bound

	players  []*Player // join order
	messages []Message
}

// NewLobby seats host as the first player.
func NewLobby(id uuid.UUID, host *Player, now time.Time) *Lobby {
	l := &Lobby{ID: id, LastActivity: now}
	if host != nil {
		l.AddPlayer(host)
	}
	return l
}

func (l *Lobby) Players() []*Player {
	return append([]*Player(nil), l.players...)
}

func (l *Lobby) Len() int {
	return len(l.players)
}

func (l *Lobby) Empty() bool {
	return len(l.players) == 0
}

func (l *Lobby) IndexOf(id uuid.UUID) int {
	_, idx, ok := lo.FindIndexOf(l.players, func(p *Player) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return idx
}

func (l *Lobby) Has(id uuid.UUID) bool {
	return l.IndexOf(id) >= 0
}

func (l *Lobby) PlayerAt(idx int) *Player {
	if idx < 0 || idx >= len(l.players) {
		return nil
	}
	return l.players[idx]
}

// AddPlayer 入座. The first player becomes host.
func (l *Lobby) AddPlayer(p *Player) {
	l.players = append(l.players, p)
	p.LobbyID = l.ID
	if l.Host == nil {
		l.Host = p
	}
}

// RemovePlayer 离座. Returns the removed player's former index, or -1.
// Host passes to the next player in join order.
func (l *Lobby) RemovePlayer(id uuid.UUID) (*Player, int) {
	idx := l.IndexOf(id)
	if idx < 0 {
		return nil, -1
	}
	p := l.players[idx]
	l.players = append(l.players[:idx], l.players[idx+1:]...)
	p.ExitReset()
	if l.Host == p {
		l.Host = nil
		if len(l.players) > 0 {
			l.Host = l.players[0]
		}
	}
	return p, idx
}

func (l *Lobby) Touch(now time.Time) {
	if now.After(l.LastActivity) {
		l.LastActivity = now
	}
}

func (l *Lobby) AppendMessage(m Message) {
	l.messages = append(l.messages, m)
}

func (l *Lobby) Messages() []Message {
	return append([]Message(nil), l.messages...)
}

// AllReady reports whether every seated player has flagged ready.
func (l *Lobby) AllReady() bool {
	return lo.EveryBy(l.players, func(p *Player) bool { return p.Ready })
}

// IdleFor returns how long the lobby has been without a mutating action.
func (l *Lobby) IdleFor(now time.Time) time.Duration {
	return now.Sub(l.LastActivity)
}

func (l *Lobby) Desc() string {
	deck := -1
	if l.Deck != nil {
		deck = l.Deck.Len()
	}
	return fmt.Sprintf("(Lobby:%s players:%d deck:%d game:%s msgs:%d)",
		l.ID, len(l.players), deck, l.GameStateID, len(l.messages))
}
