package model

import (
	"fmt"

	"github.com/google/uuid"
)

type Player struct {
	ID       uuid.UUID
	Username string
	Ready    bool
	Online   bool
	LobbyID  uuid.UUID // uuid.Nil when not seated

	hand *Hand
}

func NewPlayer(username string) *Player {
	return NewPlayerWithID(uuid.New(), username)
}

func NewPlayerWithID(id uuid.UUID, username string) *Player {
	p := &Player{ID: id, Username: username, Online: true}
	p.hand = newHand(p)
	return p
}

func (p *Player) Hand() *Hand {
	return p.hand
}

func (p *Player) InLobby() bool {
	return p.LobbyID != uuid.Nil
}

// ExitReset clears per-lobby state when the player leaves its lobby.
func (p *Player) ExitReset() {
	p.LobbyID = uuid.Nil
	p.Ready = false
}

func (p *Player) Desc() string {
	bool2Int := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("(%s %s L:%s H:%d ready:%d online:%d)",
		p.ID, p.Username, p.LobbyID, p.hand.Len(), bool2Int(p.Ready), bool2Int(p.Online))
}
