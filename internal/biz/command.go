package biz

import (
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/yola1107/twisted/pkg/codes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 客户端命令
const (
	CmdUserConnect       = "UserConnect"
	CmdCreateLobby       = "CreateLobby"
	CmdJoinLobby         = "JoinLobby"
	CmdLeaveLobby        = "LeaveLobby"
	CmdSendMessage       = "SendMessage"
	CmdUserReady         = "UserReady"
	CmdStartGame         = "StartGame"
	CmdChangeTurn        = "ChangeTurn"
	CmdPlayedCard        = "PlayedCard"
	CmdPickedCard        = "PickedCard"
	CmdCardDiscarded     = "CardDiscarded"
	CmdMatchCards        = "MatchCards"
	CmdGameOver          = "GameOver"
	CmdSaveGameState     = "SaveGameState"
	CmdRetrieveGameState = "RetrieveGameState"
	CmdUserDisconnect    = "UserDisconnect"
	CmdPing              = "Ping"
)

// Payload is a decoded, shape-checked command body.
type Payload interface {
	Command() string
}

type UserConnect struct {
	Username string `json:"username" shape:"text"`
}

type CreateLobby struct {
	LobbyID uuid.UUID `json:"lobbyId"`
}

type JoinLobby struct {
	PlayerID uuid.UUID `json:"playerId"`
	LobbyID  uuid.UUID `json:"lobbyId"`
}

type LeaveLobby struct {
	PlayerID uuid.UUID `json:"playerId"`
	LobbyID  uuid.UUID `json:"lobbyId"`
}

type SendMessage struct {
	PlayerID uuid.UUID `json:"playerId"`
	LobbyID  uuid.UUID `json:"lobbyId"`
	Message  string    `json:"message" shape:"text"`
}

type UserReady struct {
	PlayerID uuid.UUID `json:"playerId"`
	LobbyID  uuid.UUID `json:"lobbyId"`
}

type StartGame struct {
	LobbyID uuid.UUID `json:"lobbyId"`
}

type ChangeTurn struct {
	GameStateID uuid.UUID `json:"gameStateId"`
	LobbyID     uuid.UUID `json:"lobbyId"`
}

type PlayedCard struct {
	PlayerID       uuid.UUID  `json:"playerId"`
	TargetPlayerID *uuid.UUID `json:"targetPlayerId,omitempty"`
	CardID         uuid.UUID  `json:"cardId"`
	TableID        uuid.UUID  `json:"tableId"`
	LobbyID        uuid.UUID  `json:"lobbyId"`
	GameStateID    uuid.UUID  `json:"gameStateId"`
}

// PickedCard draws from the deck, or takes CardID out of PlayerPreviousID's
// hand when FromOpponent is set.
type PickedCard struct {
	PlayerPreviousID uuid.UUID `json:"playerPreviousId"`
	PlayerNewID      uuid.UUID `json:"playerNewId"`
	CardID           uuid.UUID `json:"cardId"`
	GameStateID      uuid.UUID `json:"gameStateId"`
	LobbyID          uuid.UUID `json:"lobbyId"`
	FromOpponent     bool      `json:"fromOpponent"`
}

type CardDiscarded struct {
	GameStateID uuid.UUID `json:"gameStateId"`
	CardID      uuid.UUID `json:"cardId"`
	LobbyID     uuid.UUID `json:"lobbyId"`
	PlayerID    uuid.UUID `json:"playerId"`
}

type MatchCards struct {
	PlayerID    uuid.UUID `json:"playerId"`
	Card1ID     uuid.UUID `json:"card1Id"`
	Card2ID     uuid.UUID `json:"card2Id"`
	GameStateID uuid.UUID `json:"gameStateId"`
	LobbyID     uuid.UUID `json:"lobbyId"`
}

type GameOver struct {
	LobbyID     uuid.UUID `json:"lobbyId"`
	GameStateID uuid.UUID `json:"gameStateId"`
}

type SaveGameState struct {
	GameStateID uuid.UUID `json:"gameStateId"`
}

type ReconnectingPlayer struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username" shape:"text"`
}

type RetrieveGameState struct {
	GameStateID        uuid.UUID          `json:"gameStateId"`
	ReconnectingPlayer ReconnectingPlayer `json:"reconnectingPlayer"`
}

type UserDisconnect struct {
	PlayerID    uuid.UUID  `json:"playerId"`
	LobbyID     *uuid.UUID `json:"lobbyId,omitempty"`
	GameStateID *uuid.UUID `json:"gameStateId,omitempty"`
}

type Ping struct{}

func (*UserConnect) Command() string       { return CmdUserConnect }
func (*CreateLobby) Command() string       { return CmdCreateLobby }
func (*JoinLobby) Command() string         { return CmdJoinLobby }
func (*LeaveLobby) Command() string        { return CmdLeaveLobby }
func (*SendMessage) Command() string       { return CmdSendMessage }
func (*UserReady) Command() string         { return CmdUserReady }
func (*StartGame) Command() string         { return CmdStartGame }
func (*ChangeTurn) Command() string        { return CmdChangeTurn }
func (*PlayedCard) Command() string        { return CmdPlayedCard }
func (*PickedCard) Command() string        { return CmdPickedCard }
func (*CardDiscarded) Command() string     { return CmdCardDiscarded }
func (*MatchCards) Command() string        { return CmdMatchCards }
func (*GameOver) Command() string          { return CmdGameOver }
func (*SaveGameState) Command() string     { return CmdSaveGameState }
func (*RetrieveGameState) Command() string { return CmdRetrieveGameState }
func (*UserDisconnect) Command() string    { return CmdUserDisconnect }
func (*Ping) Command() string              { return CmdPing }

var registry = map[string]func() Payload{
	CmdUserConnect:       func() Payload { return &UserConnect{} },
	CmdCreateLobby:       func() Payload { return &CreateLobby{} },
	CmdJoinLobby:         func() Payload { return &JoinLobby{} },
	CmdLeaveLobby:        func() Payload { return &LeaveLobby{} },
	CmdSendMessage:       func() Payload { return &SendMessage{} },
	CmdUserReady:         func() Payload { return &UserReady{} },
	CmdStartGame:         func() Payload { return &StartGame{} },
	CmdChangeTurn:        func() Payload { return &ChangeTurn{} },
	CmdPlayedCard:        func() Payload { return &PlayedCard{} },
	CmdPickedCard:        func() Payload { return &PickedCard{} },
	CmdCardDiscarded:     func() Payload { return &CardDiscarded{} },
	CmdMatchCards:        func() Payload { return &MatchCards{} },
	CmdGameOver:          func() Payload { return &GameOver{} },
	CmdSaveGameState:     func() Payload { return &SaveGameState{} },
	CmdRetrieveGameState: func() Payload { return &RetrieveGameState{} },
	CmdUserDisconnect:    func() Payload { return &UserDisconnect{} },
	CmdPing:              func() Payload { return &Ping{} },
}

// Commands lists every command name the engine accepts.
func Commands() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Decode unmarshals raw into the payload registered for name and checks its shape.
// Every failure is InvalidPayload, so it wins over any business error.
func Decode(name string, raw []byte) (Payload, error) {
	newPayload, ok := registry[name]
	if !ok {
		return nil, codes.ErrInvalidPayload.WithMetadata(map[string]string{"command": name, "reason": "unknown command"})
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	p := newPayload()
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, codes.ErrInvalidPayload.WithCause(err).WithMetadata(map[string]string{"command": name, "reason": "malformed body"})
	}
	if err := checkShape(p); err != nil {
		return nil, codes.ErrInvalidPayload.WithCause(err).WithMetadata(map[string]string{"command": name, "reason": err.Error()})
	}
	return p, nil
}
