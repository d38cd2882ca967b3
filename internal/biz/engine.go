package biz

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"
	"golang.org/x/sync/singleflight"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/snapshot"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/pkg/codes"
	"github.com/yola1107/twisted/pkg/ext"
)

// Actor identifies the connection a command arrived on.
type Actor struct {
	SessionID string
}

// Async is the I/O half of a command. IO runs off the loop; Then runs back on
// the loop with IO's error and must re-check anything it read before IO.
type Async struct {
	IO   func(ctx context.Context) error
	Then func(ioErr error) ([]Event, error)
}

// Result is what a command produced. Events are delivered before Async starts.
type Result struct {
	Events []Event
	Async  *Async
}

// Reaper releases a lobby's whole graph.
type Reaper interface {
	// Teardown releases the graph and deletes its snapshot.
	Teardown(l *model.Lobby)
	// Evict releases the graph and keeps its snapshot for a later resume.
	Evict(l *model.Lobby)
	// Discard deletes a game's snapshot.
	Discard(gameID uuid.UUID)
}

type Options struct {
	Rules        model.RuleSet
	RequireReady bool
	Seed         int64 // 0 seeds from the clock
	Now          func() time.Time
}

// Engine executes decoded commands against the stores. It is not safe for
// concurrent use: every call happens on the event loop.
type Engine struct {
	stores  *store.Stores
	snap    *snapshot.Store
	reaper  Reaper
	opts    Options
	rand    *rand.Rand
	sf      singleflight.Group
	metrics *metrics
}

func NewEngine(s *store.Stores, snap *snapshot.Store, reaper Reaper, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rules.HandSize == 0 {
		opts.Rules = model.BaseRules()
	}
	return &Engine{
		stores:  s,
		snap:    snap,
		reaper:  reaper,
		opts:    opts,
		rand:    ext.NewRand(opts.Seed),
		metrics: newMetrics(),
	}
}

func (e *Engine) Stores() *store.Stores {
	return e.stores
}

func (e *Engine) now() time.Time {
	return e.opts.Now()
}

func (e *Engine) touch(l *model.Lobby) {
	if l != nil {
		l.Touch(e.now())
	}
}

// Execute runs one command to completion. On error nothing has been mutated.
func (e *Engine) Execute(ctx context.Context, actor Actor, p Payload) (res Result, err error) {
	switch cmd := p.(type) {
	case *UserConnect:
		res, err = e.userConnect(actor, cmd)
	case *CreateLobby:
		res, err = e.createLobby(actor, cmd)
	case *JoinLobby:
		res, err = e.joinLobby(cmd)
	case *LeaveLobby:
		res, err = e.leaveLobby(cmd)
	case *SendMessage:
		res, err = e.sendMessage(cmd)
	case *UserReady:
		res, err = e.userReady(cmd)
	case *StartGame:
		res, err = e.startGame(cmd)
	case *ChangeTurn:
		res, err = e.changeTurn(actor, cmd)
	case *PlayedCard:
		res, err = e.playedCard(cmd)
	case *PickedCard:
		res, err = e.pickedCard(cmd)
	case *CardDiscarded:
		res, err = e.cardDiscarded(cmd)
	case *MatchCards:
		res, err = e.matchCards(cmd)
	case *GameOver:
		res, err = e.gameOver(cmd)
	case *SaveGameState:
		res, err = e.saveGameState(cmd)
	case *RetrieveGameState:
		res, err = e.retrieveGameState(actor, cmd)
	case *UserDisconnect:
		res, err = e.userDisconnect(cmd)
	case *Ping:
		res = Result{Events: []Event{private(EvPong, PongData{Time: e.now()})}}
	default:
		err = codes.ErrInvalidPayload.WithMetadata(map[string]string{"reason": "unsupported payload"})
	}
	name := "unknown"
	if p != nil {
		name = p.Command()
	}
	e.metrics.observe(ctx, name, err)
	return res, err
}

func events(evs ...Event) Result {
	return Result{Events: evs}
}

// settle ends the game when a move emptied some hand and appends the winner announcement.
func (e *Engine) settle(g *model.GameState, evs []Event) []Event {
	if !g.InProgress() || !g.IsGameOver() {
		return evs
	}
	g.End()
	log.Infof("game over. %s winner=%v", g.Desc(), winnerDesc(g))
	return append(evs, gameEnded(g))
}

func winnerDesc(g *model.GameState) string {
	if w := g.Winner(); w != nil {
		return w.Desc()
	}
	return "-"
}

// actorPlayer resolves the player bound to the acting session.
func (e *Engine) actorPlayer(actor Actor) (*model.Player, error) {
	id, ok := e.stores.Sessions.PlayerOf(actor.SessionID)
	if !ok {
		return nil, codes.ErrPlayerNotFound.WithMetadata(map[string]string{"session": actor.SessionID})
	}
	p, ok := e.stores.Players.Find(id)
	if !ok {
		return nil, codes.ErrPlayerNotFound.WithMetadata(map[string]string{"playerId": id.String()})
	}
	return p, nil
}

// boundGame is the game referenced by l, if it is still registered.
func (e *Engine) boundGame(l *model.Lobby) *model.GameState {
	if l == nil || l.GameStateID == uuid.Nil {
		return nil
	}
	g, _ := e.stores.Games.Find(l.GameStateID)
	return g
}

// releaseGame drops a finished game with its table, the cards still in hands and its snapshot.
func (e *Engine) releaseGame(g *model.GameState) {
	if g.Table != nil {
		e.stores.ReleaseTable(g.Table)
	}
	if l := g.Lobby; l != nil {
		for _, p := range l.Players() {
			e.stores.RemoveCards(p.Hand().Clear()...)
		}
		if l.Deck != nil {
			e.stores.ReleaseDeck(l.Deck)
			l.Deck = nil
		}
		if l.GameStateID == g.ID {
			l.GameStateID = uuid.Nil
		}
	}
	e.stores.Games.Remove(g.ID)
	e.reaper.Discard(g.ID)
}
