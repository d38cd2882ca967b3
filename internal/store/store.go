package store

import (
	"github.com/google/uuid"
	"github.com/google/wire"

	"github.com/yola1107/twisted/internal/model"
)

// ProviderSet is store providers.
var ProviderSet = wire.NewSet(NewStores)

// Repo is the save/find/remove capability of one entity kind.
// Implementations are not synchronised: callers run on the event loop.
type Repo[T any] interface {
	Save(id uuid.UUID, v T)
	Find(id uuid.UUID) (T, bool)
	Remove(id uuid.UUID) bool
	Len() int
	Range(fn func(id uuid.UUID, v T) bool)
}

type memRepo[T any] struct {
	items map[uuid.UUID]T
}

func NewRepo[T any]() Repo[T] {
	return &memRepo[T]{items: make(map[uuid.UUID]T)}
}

func (r *memRepo[T]) Save(id uuid.UUID, v T) {
	r.items[id] = v
}

func (r *memRepo[T]) Find(id uuid.UUID) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

func (r *memRepo[T]) Remove(id uuid.UUID) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

func (r *memRepo[T]) Len() int {
	return len(r.items)
}

func (r *memRepo[T]) Range(fn func(id uuid.UUID, v T) bool) {
	for id, v := range r.items {
		if !fn(id, v) {
			return
		}
	}
}

// PlayerRepo adds a username index on top of Repo.
type PlayerRepo interface {
	Repo[*model.Player]
	FindByUsername(name string) (*model.Player, bool)
}

type playerRepo struct {
	Repo[*model.Player]
	byName map[string]uuid.UUID
}

func NewPlayerRepo() PlayerRepo {
	return &playerRepo{
		Repo:   NewRepo[*model.Player](),
		byName: make(map[string]uuid.UUID),
	}
}

func (r *playerRepo) Save(id uuid.UUID, p *model.Player) {
	if old, ok := r.Repo.Find(id); ok && old.Username != p.Username {
		delete(r.byName, old.Username)
	}
	r.Repo.Save(id, p)
	r.byName[p.Username] = id
}

func (r *playerRepo) Remove(id uuid.UUID) bool {
	p, ok := r.Repo.Find(id)
	if !ok {
		return false
	}
	if r.byName[p.Username] == id {
		delete(r.byName, p.Username)
	}
	return r.Repo.Remove(id)
}

func (r *playerRepo) FindByUsername(name string) (*model.Player, bool) {
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.Repo.Find(id)
}
