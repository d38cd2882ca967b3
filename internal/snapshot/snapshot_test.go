package snapshot

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yola1107/kratos/v2/errors"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/pkg/codes"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newGame(t *testing.T) *model.GameState {
	t.Helper()
	rules := model.BaseRules()
	lobby := model.NewLobby(uuid.New(), model.NewPlayer("alice"), fixedNow)
	lobby.AddPlayer(model.NewPlayer("bob"))
	lobby.AddPlayer(model.NewPlayer("carol"))
	lobby.Deck = rules.BuildDeck()
	lobby.Deck.Shuffle(rand.New(rand.NewSource(9)))

	g := model.NewGameState(lobby, model.NewTable())
	lobby.GameStateID = g.ID
	g.Start(lobby.Deck, rules.HandSize)

	players := lobby.Players()
	c, _ := players[0].Hand().Remove(players[0].Hand().CardIDs()[0])
	g.Table.Dispose(c)
	players[1].Ready = true
	lobby.AppendMessage(model.Message{
		ID: "m1", PlayerID: players[1].ID, Username: "bob", Text: "hi", SentAt: fixedNow,
	})
	g.NextTurn()
	g.ToggleLight()
	return g
}

func TestRoundTrip(t *testing.T) {
	g := newGame(t)
	before := Serialize(g)

	data, err := Encode(before)
	require.NoError(t, err)
	doc, err := Decode(data)
	require.NoError(t, err)
	rebuilt, err := Reconstruct(doc)
	require.NoError(t, err)

	changes, err := diff.Diff(before, Serialize(rebuilt))
	require.NoError(t, err)
	assert.Empty(t, changes)

	assert.Equal(t, g.ID, rebuilt.ID)
	assert.Equal(t, g.Status, rebuilt.Status)
	assert.Equal(t, g.Light, rebuilt.Light)
	assert.Equal(t, g.CurrentPlayerIndex, rebuilt.CurrentPlayerIndex)
	assert.Equal(t, g.Table.CardIDs(), rebuilt.Table.CardIDs())
	assert.Equal(t, g.Lobby.Deck.CardIDs(), rebuilt.Lobby.Deck.CardIDs())
	assert.Equal(t, g.Lobby.Host.ID, rebuilt.Lobby.Host.ID)
	assert.Equal(t, g.Lobby.Messages(), rebuilt.Lobby.Messages())
	assert.Equal(t, rebuilt.ID, rebuilt.Lobby.GameStateID)
}

func TestReconstructBuildsFreshGraph(t *testing.T) {
	g := newGame(t)
	rebuilt, err := Reconstruct(Serialize(g))
	require.NoError(t, err)

	assert.NotSame(t, g.Lobby, rebuilt.Lobby)
	assert.NotSame(t, g.Table, rebuilt.Table)
	old, fresh := g.Lobby.Players(), rebuilt.Lobby.Players()
	require.Len(t, fresh, len(old))
	for i := range old {
		assert.NotSame(t, old[i], fresh[i])
		assert.Equal(t, old[i].ID, fresh[i].ID)
		assert.Equal(t, old[i].Hand().CardIDs(), fresh[i].Hand().CardIDs())
		assert.Equal(t, rebuilt.Lobby.ID, fresh[i].LobbyID)
		assert.Same(t, fresh[i], fresh[i].Hand().Owner())
		for _, c := range fresh[i].Hand().Cards() {
			assert.Same(t, fresh[i], c.Owner())
		}
	}
	// mutating the rebuilt graph leaves the original alone
	rebuilt.ToggleLight()
	assert.NotEqual(t, g.Light, rebuilt.Light)
}

func TestReconstructRejectsUnknownNames(t *testing.T) {
	doc := Serialize(newGame(t))
	doc.GameStatus = "Paused"
	_, err := Reconstruct(doc)
	assert.Error(t, err)

	doc = Serialize(newGame(t))
	doc.Lobby.Users[0].Hand = append(doc.Lobby.Users[0].Hand, Card{ID: uuid.New(), Type: "Joker"})
	_, err = Reconstruct(doc)
	assert.Error(t, err)
}

func TestCardShape(t *testing.T) {
	twisted := fromCard(model.NewTwisted(model.EffectSwapHand))
	assert.Equal(t, "Twisted", twisted.Type)
	assert.Equal(t, "SwapHand", twisted.SpecialEffect)

	data, err := json.Marshal(fromCard(model.NewRegular(7)))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "specialEffect")
	assert.Contains(t, string(data), `"value":7`)
}

func testRepo(t *testing.T, repo Repo) {
	t.Helper()
	ctx := context.Background()
	s := NewStore(repo, time.Second)
	g := newGame(t)

	_, err := s.Load(ctx, g.ID)
	assert.True(t, errors.Is(err, codes.ErrSnapshotNotFound))

	require.NoError(t, s.Save(ctx, Serialize(g)))
	g.ToggleLight()
	require.NoError(t, s.Save(ctx, Serialize(g)))

	doc, err := s.Load(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, Serialize(g), doc, "whole-document replace keeps the latest version")

	require.NoError(t, s.Remove(ctx, g.ID))
	require.NoError(t, s.Remove(ctx, g.ID))
	_, err = s.Load(ctx, g.ID)
	assert.True(t, errors.Is(err, codes.ErrSnapshotNotFound))
}

func TestMemoryRepo(t *testing.T) {
	testRepo(t, NewMemoryRepo())
}

func TestSQLiteRepo(t *testing.T) {
	repo, err := NewSQLiteRepo(context.Background(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()
	testRepo(t, repo)
}

func TestCorruptDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	id := uuid.New()
	require.NoError(t, repo.Put(ctx, id, []byte("{not json")))

	_, err := NewStore(repo, 0).Load(ctx, id)
	assert.True(t, errors.Is(err, codes.ErrSnapshotLoadFailed))
}

func TestOpen(t *testing.T) {
	repo, err := Open(context.Background(), Options{Driver: "memory"})
	require.NoError(t, err)
	assert.NoError(t, repo.Close())

	_, err = Open(context.Background(), Options{Driver: "mongo"})
	assert.Error(t, err)
}
