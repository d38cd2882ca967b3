package biz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/twisted/internal/model"
)

func TestViews(t *testing.T) {
	host := model.NewPlayer("alice")
	host.Ready = true
	host.Hand().Add(model.NewRegular(4), model.NewBlackHole())
	l := model.NewLobby(uuid.New(), host, t0)
	l.AppendMessage(model.Message{ID: "m1", PlayerID: host.ID, Username: "alice", Text: "hi", SentAt: t0})

	pv := playerView(host)
	assert.Equal(t, host.ID, pv.ID)
	assert.Equal(t, "alice", pv.Username)
	assert.True(t, pv.Ready)
	assert.Equal(t, l.ID, pv.LobbyID)
	assert.Len(t, pv.Cards, 2)

	lv := lobbyView(l)
	require.NotNil(t, lv)
	assert.Equal(t, host.ID, lv.Host)
	assert.Equal(t, []MessageView{{ID: "m1", PlayerID: host.ID, Username: "alice", Text: "hi", SentAt: t0}}, lv.Messages)
	assert.Nil(t, lobbyView(nil))
}
