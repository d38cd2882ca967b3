package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/snapshot"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/internal/work"
)

// Reaper releases a lobby and everything hanging off it. Release runs on the
// event loop; snapshot deletes run on the I/O pool.
type Reaper struct {
	stores *store.Stores
	snap   *snapshot.Store
	pool   *work.Pool
	wg     sync.WaitGroup

	// 被驱逐游戏的快照 id -> 大厅最后活跃时间, 仅在事件循环中访问
	evicted map[uuid.UUID]time.Time
}

func NewReaper(s *store.Stores, snap *snapshot.Store, pool *work.Pool) *Reaper {
	return &Reaper{stores: s, snap: snap, pool: pool, evicted: make(map[uuid.UUID]time.Time)}
}

// Teardown releases the lobby graph and deletes the snapshots of its games.
func (r *Reaper) Teardown(l *model.Lobby) {
	for _, id := range r.release(l) {
		r.Discard(id)
	}
}

// Evict releases the lobby graph but keeps its snapshots, so the game can be
// retrieved later. The snapshots expire once the lobby has been idle past the
// sweep threshold, see Expire.
func (r *Reaper) Evict(l *model.Lobby) {
	idleSince := l.LastActivity
	for _, id := range r.release(l) {
		r.evicted[id] = idleSince
	}
}

// Discard deletes one game's snapshot off the loop.
func (r *Reaper) Discard(id uuid.UUID) {
	delete(r.evicted, id)
	r.removeSnapshot(id)
}

// Expire deletes the snapshots of evicted games idle for longer than ttl and
// returns how many went. Games retrieved since their eviction are dropped from
// the record: their lobby is swept like any other.
func (r *Reaper) Expire(now time.Time, ttl time.Duration) int {
	n := 0
	for id, idleSince := range r.evicted {
		if _, ok := r.stores.Games.Find(id); ok {
			delete(r.evicted, id)
			continue
		}
		if now.Sub(idleSince) > ttl {
			log.Infof("evicted snapshot expired. id=%s idle=%v", id, now.Sub(idleSince))
			r.Discard(id)
			n++
		}
	}
	return n
}

// Evicted is the number of evicted games whose snapshots are still kept.
func (r *Reaper) Evicted() int {
	return len(r.evicted)
}

// Wait blocks until every pending snapshot delete has finished.
func (r *Reaper) Wait() {
	r.wg.Wait()
}

// release drops deck, games, tables, players, hand cards and the lobby itself,
// and returns the ids of the released games.
func (r *Reaper) release(l *model.Lobby) []uuid.UUID {
	s := r.stores
	var games []*model.GameState
	s.Games.Range(func(_ uuid.UUID, g *model.GameState) bool {
		if g.ID == l.GameStateID || (g.Lobby != nil && g.Lobby.ID == l.ID) {
			games = append(games, g)
		}
		return true
	})

	ids := make([]uuid.UUID, 0, len(games))
	for _, g := range games {
		if g.Table != nil {
			s.ReleaseTable(g.Table)
		}
		s.Games.Remove(g.ID)
		ids = append(ids, g.ID)
	}
	if l.Deck != nil {
		s.ReleaseDeck(l.Deck)
		l.Deck = nil
	}
	for _, p := range l.Players() {
		s.ReleasePlayer(p)
	}
	s.Lobbies.Remove(l.ID)
	l.GameStateID = uuid.Nil
	log.Infof("lobby released. %s games=%d [%s]", l.Desc(), len(ids), s.Counts())
	return ids
}

func (r *Reaper) removeSnapshot(id uuid.UUID) {
	if r.snap == nil {
		return
	}
	r.wg.Add(1)
	r.pool.Post(func() {
		defer r.wg.Done()
		if err := r.snap.Remove(context.Background(), id); err != nil {
			log.Errorf("snapshot remove failed. id=%s err=%v", id, err)
		}
	})
}
