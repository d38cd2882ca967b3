package biz

import (
	"context"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/biz/validator"
	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/snapshot"
	"github.com/yola1107/twisted/pkg/codes"
)

func (e *Engine) saveIO(doc *snapshot.Document) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return e.snap.Save(ctx, doc)
	}
}

// saveGameState serializes on the loop and writes off it. The acknowledgement
// goes to whoever is seated when the write completes.
func (e *Engine) saveGameState(cmd *SaveGameState) (Result, error) {
	g, err := validator.GameState(e.stores, cmd.GameStateID)
	if err != nil {
		return Result{}, err
	}

	doc := snapshot.Serialize(g)
	lobbyID := uuid.Nil
	if g.Lobby != nil {
		lobbyID = g.Lobby.ID
		e.touch(g.Lobby)
	}
	return Result{Async: &Async{
		IO: e.saveIO(doc),
		Then: func(ioErr error) ([]Event, error) {
			if ioErr != nil {
				return nil, ioErr
			}
			data := GameStateSavedData{GameStateID: doc.ID}
			if to := e.lobbyMembers(lobbyID); len(to) > 0 {
				return []Event{{Name: EvGameStateSaved, To: to, Data: data}}, nil
			}
			return []Event{private(EvGameStateSaved, data)}, nil
		},
	}}, nil
}

// retrieveGameState resumes a resident game directly, otherwise loads the
// snapshot off the loop and installs a freshly built graph.
func (e *Engine) retrieveGameState(actor Actor, cmd *RetrieveGameState) (Result, error) {
	id := cmd.GameStateID
	rp := cmd.ReconnectingPlayer
	if g, ok := e.stores.Games.Find(id); ok {
		evs, err := e.resume(actor, g, rp.ID)
		return events(evs...), err
	}

	var doc *snapshot.Document
	return Result{Async: &Async{
		IO: func(ctx context.Context) error {
			// 同一快照的并发加载合并为一次读取
			v, err, _ := e.sf.Do(id.String(), func() (any, error) {
				return e.snap.Load(ctx, id)
			})
			if err != nil {
				return err
			}
			doc = v.(*snapshot.Document)
			return nil
		},
		Then: func(ioErr error) ([]Event, error) {
			if ioErr != nil {
				return nil, ioErr
			}
			// another command may have installed it while we were loading
			if g, ok := e.stores.Games.Find(id); ok {
				return e.resume(actor, g, rp.ID)
			}
			g, err := snapshot.Reconstruct(doc)
			if err != nil {
				return nil, codes.ErrSnapshotLoadFailed.WithCause(err).WithMetadata(map[string]string{"gameStateId": id.String()})
			}
			if g.Lobby == nil {
				return nil, codes.ErrLobbyNotFound.WithMetadata(map[string]string{"gameStateId": id.String()})
			}
			if !g.Lobby.Has(rp.ID) {
				return nil, codes.ErrPlayerNotInLobby.WithMetadata(map[string]string{
					"playerId": rp.ID.String(), "lobbyId": g.Lobby.ID.String(),
				})
			}
			if err := e.installable(actor, g); err != nil {
				return nil, err
			}
			e.stores.Register(g)
			log.Infof("game state reconstructed. %s %s", g.Desc(), g.Lobby.Desc())
			return e.resume(actor, g, rp.ID)
		},
	}}, nil
}

// installable rejects a reconstructed graph whose lobby, players or usernames
// are still live, since registering it would replace objects other games hold.
// The unseated player of the acting session is the only allowed username clash.
func (e *Engine) installable(actor Actor, g *model.GameState) error {
	stale := func(k, v string) error {
		return codes.ErrSnapshotStale.WithMetadata(map[string]string{"gameStateId": g.ID.String(), k: v})
	}
	if _, ok := e.stores.Lobbies.Find(g.Lobby.ID); ok {
		return stale("lobbyId", g.Lobby.ID.String())
	}
	placeholder := e.placeholder(actor)
	for _, p := range g.Lobby.Players() {
		if _, ok := e.stores.Players.Find(p.ID); ok {
			return stale("playerId", p.ID.String())
		}
		if q, ok := e.stores.Players.FindByUsername(p.Username); ok && q != placeholder {
			return stale("username", p.Username)
		}
	}
	return nil
}

// placeholder is the player bound to the acting session when it sits in no lobby.
func (e *Engine) placeholder(actor Actor) *model.Player {
	pid, ok := e.stores.Sessions.PlayerOf(actor.SessionID)
	if !ok {
		return nil
	}
	p, ok := e.stores.Players.Find(pid)
	if !ok || p.InLobby() {
		return nil
	}
	return p
}

// resume re-resolves the reconnecting player from the stores and binds it to the acting session.
func (e *Engine) resume(actor Actor, g *model.GameState, playerID uuid.UUID) ([]Event, error) {
	if g.Lobby == nil {
		return nil, codes.ErrLobbyNotFound.WithMetadata(map[string]string{"gameStateId": g.ID.String()})
	}
	p, err := validator.Player(e.stores, playerID)
	if err != nil {
		return nil, err
	}
	if err := validator.InLobby(g.Lobby, p); err != nil {
		return nil, err
	}

	// 重连前用 UserConnect 建立的临时玩家不再需要
	if q := e.placeholder(actor); q != nil && q != p {
		e.stores.ReleasePlayer(q)
		log.Infof("placeholder released. session=%s %s", actor.SessionID, q.Desc())
	}
	p.Online = true
	e.stores.Sessions.Bind(actor.SessionID, p.ID)
	e.touch(g.Lobby)
	log.Infof("user resumed. session=%s %s %s", actor.SessionID, g.Desc(), p.Desc())
	return []Event{private(EvGameStateRetrieved, GameData{Game: gameView(g)})}, nil
}
