package model

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Table is the disposal pile of cards removed from play.
type Table struct {
	ID       uuid.UUID
	disposed []*Card
}

func NewTable() *Table {
	return NewTableWithID(uuid.New())
}

func NewTableWithID(id uuid.UUID) *Table {
	return &Table{ID: id}
}

// Dispose appends cards to the pile. Callers remove them from their hand first.
func (t *Table) Dispose(cards ...*Card) {
	for _, c := range cards {
		c.owner = nil
		t.disposed = append(t.disposed, c)
	}
}

func (t *Table) Len() int {
	return len(t.disposed)
}

func (t *Table) Cards() []*Card {
	return append([]*Card(nil), t.disposed...)
}

func (t *Table) CardIDs() []uuid.UUID {
	return cardIDs(t.disposed)
}

func (t *Table) Contains(id uuid.UUID) bool {
	return lo.ContainsBy(t.disposed, func(c *Card) bool { return c.ID == id })
}

// Clear empties the pile between games.
func (t *Table) Clear() []*Card {
	out := t.disposed
	t.disposed = nil
	return out
}
