package biz

import (
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/biz/validator"
	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/snapshot"
)

func (e *Engine) userConnect(actor Actor, cmd *UserConnect) (Result, error) {
	name := strings.TrimSpace(cmd.Username)
	if err := validator.UsernameFree(e.stores, name); err != nil {
		return Result{}, err
	}

	p := model.NewPlayer(name)
	e.stores.SavePlayer(p)
	e.stores.Sessions.Bind(actor.SessionID, p.ID)
	log.Infof("user connected. session=%s %s", actor.SessionID, p.Desc())
	return events(private(EvUserConnected, UserConnectedData{Player: playerView(p)})), nil
}

func (e *Engine) createLobby(actor Actor, cmd *CreateLobby) (Result, error) {
	p, err := e.actorPlayer(actor)
	if err != nil {
		return Result{}, err
	}
	if err := validator.LobbyAbsent(e.stores, cmd.LobbyID); err != nil {
		return Result{}, err
	}
	if err := validator.Free(p); err != nil {
		return Result{}, err
	}

	l := model.NewLobby(cmd.LobbyID, p, e.now())
	e.stores.Lobbies.Save(l.ID, l)
	log.Infof("lobby created. %s host=%s", l.Desc(), p.Desc())
	return events(broadcast(l, EvLobbyCreated, LobbyData{PlayerID: p.ID, Lobby: lobbyView(l)})), nil
}

func (e *Engine) joinLobby(cmd *JoinLobby) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.Free(p); err != nil {
		return Result{}, err
	}
	// 对局中不允许加入, 空手玩家会立即触发结束判定
	if err := validator.NoLiveGame(e.stores, l); err != nil {
		return Result{}, err
	}

	l.AddPlayer(p)
	e.touch(l)
	log.Infof("user joined. %s %s", l.Desc(), p.Desc())
	return events(broadcast(l, EvUserJoinedLobby, LobbyData{PlayerID: p.ID, Lobby: lobbyView(l)})), nil
}

func (e *Engine) leaveLobby(cmd *LeaveLobby) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}

	to := playerIDs(l)
	e.leave(l, p)
	return events(Event{
		Name: EvUserLeftLobby,
		To:   to,
		Data: LobbyData{PlayerID: p.ID, Lobby: lobbyView(l)},
	}), nil
}

// leave unseats p: its hand goes to the bound game's table (or is released
// without one), the turn index is kept on the same holder, and an emptied
// lobby is torn down.
func (e *Engine) leave(l *model.Lobby, p *model.Player) {
	g := e.boundGame(l)
	if g != nil && g.Table != nil {
		g.Table.Dispose(p.Hand().Clear()...)
	} else {
		e.stores.RemoveCards(p.Hand().Clear()...)
	}
	_, idx := l.RemovePlayer(p.ID)
	if g != nil {
		g.OnPlayerRemoved(idx)
	}
	e.touch(l)
	log.Infof("user left. %s %s", l.Desc(), p.Desc())

	if l.Empty() {
		e.reaper.Teardown(l)
	}
}

func (e *Engine) sendMessage(cmd *SendMessage) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}

	id, _ := gonanoid.New(10)
	m := model.Message{
		ID:       id,
		PlayerID: p.ID,
		Username: p.Username,
		Text:     cmd.Message,
		SentAt:   e.now(),
	}
	l.AppendMessage(m)
	e.touch(l)
	return events(broadcast(l, EvMessageSent, MessageSentData{LobbyID: l.ID, Message: MessageView(m)})), nil
}

func (e *Engine) userReady(cmd *UserReady) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	l, err := validator.Lobby(e.stores, cmd.LobbyID)
	if err != nil {
		return Result{}, err
	}
	if err := validator.InLobby(l, p); err != nil {
		return Result{}, err
	}

	p.Ready = true
	e.touch(l)
	return events(broadcast(l, EvUserReady, LobbyData{PlayerID: p.ID, Lobby: lobbyView(l)})), nil
}

// userDisconnect keeps a player with a game in progress (offline, snapshot
// saved, graph evicted once nobody is left online). Anyone else leaves their
// lobby and is released.
func (e *Engine) userDisconnect(cmd *UserDisconnect) (Result, error) {
	p, err := validator.Player(e.stores, cmd.PlayerID)
	if err != nil {
		return Result{}, err
	}
	var l *model.Lobby
	switch {
	case cmd.LobbyID != nil:
		if l, err = validator.Lobby(e.stores, *cmd.LobbyID); err != nil {
			return Result{}, err
		}
		if err := validator.InLobby(l, p); err != nil {
			return Result{}, err
		}
	case p.InLobby():
		l, _ = e.stores.Lobbies.Find(p.LobbyID)
	}
	g := e.boundGame(l)
	if cmd.GameStateID != nil {
		if g, err = validator.GameState(e.stores, *cmd.GameStateID); err != nil {
			return Result{}, err
		}
		if l != nil {
			if err := validator.GameOfLobby(g, l); err != nil {
				return Result{}, err
			}
		}
	}

	data := UserDisconnectedData{PlayerID: p.ID, LobbyID: cmd.LobbyID, GameStateID: cmd.GameStateID}
	if l == nil {
		e.stores.ReleasePlayer(p)
		log.Infof("user disconnected. %s", p.Desc())
		return events(private(EvUserDisconnected, data)), nil
	}
	to := playerIDs(l)
	ev := Event{Name: EvUserDisconnected, To: to, Data: data}

	if g == nil || !g.InProgress() {
		e.leave(l, p)
		e.stores.ReleasePlayer(p)
		log.Infof("user disconnected. %s", p.Desc())
		return events(ev), nil
	}

	p.Online = false
	e.stores.Sessions.UnbindPlayer(p.ID)
	e.touch(l)
	log.Infof("user offline. %s %s", g.Desc(), p.Desc())

	doc := snapshot.Serialize(g)
	return Result{
		Events: []Event{ev},
		Async: &Async{
			IO: e.saveIO(doc),
			Then: func(ioErr error) ([]Event, error) {
				if ioErr != nil {
					return nil, ioErr
				}
				if cur, ok := e.stores.Lobbies.Find(l.ID); ok && cur == l && allOffline(l) {
					log.Infof("lobby offline, evicting. %s", l.Desc())
					e.reaper.Evict(l)
				}
				return nil, nil
			},
		},
	}, nil
}

func allOffline(l *model.Lobby) bool {
	for _, p := range l.Players() {
		if p.Online {
			return false
		}
	}
	return true
}

// lobbyMembers re-reads a lobby after I/O; nil when it is gone.
func (e *Engine) lobbyMembers(id uuid.UUID) []uuid.UUID {
	l, ok := e.stores.Lobbies.Find(id)
	if !ok {
		return nil
	}
	return playerIDs(l)
}
