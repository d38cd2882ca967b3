package biz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yola1107/kratos/v2/errors"

	"github.com/yola1107/twisted/pkg/codes"
)

func TestDecode(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name    string
		command string
		raw     string
		reason  string // empty when the payload must decode
	}{
		{"unknown command", "Teleport", `{}`, "unknown command"},
		{"malformed body", CmdCreateLobby, `{"lobbyId":`, "malformed body"},
		{"bad uuid text", CmdCreateLobby, `{"lobbyId":"nope"}`, "malformed body"},
		{"missing reference", CmdCreateLobby, `{}`, "lobbyId"},
		{"nil reference", CmdStartGame, `{"lobbyId":"00000000-0000-0000-0000-000000000000"}`, "lobbyId"},
		{"blank username", CmdUserConnect, `{"username":"   "}`, "username"},
		{"blank message", CmdSendMessage, `{"playerId":"` + id + `","lobbyId":"` + id + `","message":""}`, "message"},
		{"nested reference", CmdRetrieveGameState, `{"gameStateId":"` + id + `","reconnectingPlayer":{"username":"a"}}`, "id"},
		{"empty body", CmdPing, ``, ""},
		{"valid connect", CmdUserConnect, `{"username":"alice"}`, ""},
		{"optional target omitted", CmdPlayedCard,
			`{"playerId":"` + id + `","cardId":"` + id + `","tableId":"` + id + `","lobbyId":"` + id + `","gameStateId":"` + id + `"}`, ""},
		{"optional target nil", CmdPlayedCard,
			`{"playerId":"` + id + `","targetPlayerId":"00000000-0000-0000-0000-000000000000","cardId":"` + id + `","tableId":"` + id + `","lobbyId":"` + id + `","gameStateId":"` + id + `"}`, "targetPlayerId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.command, []byte(tt.raw))
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.command, p.Command())
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, codes.ErrInvalidPayload))
			assert.Contains(t, errors.FromError(err).Metadata["reason"], tt.reason)
		})
	}
}

func TestDecodeFillsPayload(t *testing.T) {
	lobby, target := uuid.New(), uuid.New()
	p, err := Decode(CmdUserDisconnect, []byte(`{"playerId":"`+target.String()+`","lobbyId":"`+lobby.String()+`"}`))
	require.NoError(t, err)

	cmd := p.(*UserDisconnect)
	assert.Equal(t, target, cmd.PlayerID)
	require.NotNil(t, cmd.LobbyID)
	assert.Equal(t, lobby, *cmd.LobbyID)
	assert.Nil(t, cmd.GameStateID)
}

func TestCommandsRegistered(t *testing.T) {
	names := Commands()
	assert.Len(t, names, 17)
	for _, name := range names {
		p, err := Decode(name, nil)
		if err == nil {
			assert.Equal(t, name, p.Command())
		}
	}
}
