package model

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Hand is the ordered set of cards held by exactly one player.
// Every mutator keeps Card.owner equal to the hand's player.
type Hand struct {
	player *Player
	cards  []*Card
}

func newHand(p *Player) *Hand {
	return &Hand{player: p}
}

func (h *Hand) Owner() *Player {
	return h.player
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) Empty() bool {
	return len(h.cards) == 0
}

func (h *Hand) Cards() []*Card {
	return append([]*Card(nil), h.cards...)
}

func (h *Hand) CardIDs() []uuid.UUID {
	return cardIDs(h.cards)
}

func (h *Hand) Find(id uuid.UUID) *Card {
	c, _ := lo.Find(h.cards, func(c *Card) bool { return c.ID == id })
	return c
}

func (h *Hand) Contains(id uuid.UUID) bool {
	return h.Find(id) != nil
}

func (h *Hand) Add(cards ...*Card) {
	for _, c := range cards {
		c.owner = h.player
		h.cards = append(h.cards, c)
	}
}

// Remove takes the card out of the hand and clears its owner.
func (h *Hand) Remove(id uuid.UUID) (*Card, bool) {
	_, idx, ok := lo.FindIndexOf(h.cards, func(c *Card) bool { return c.ID == id })
	if !ok {
		return nil, false
	}
	c := h.cards[idx]
	h.cards = append(h.cards[:idx], h.cards[idx+1:]...)
	c.owner = nil
	return c, true
}

// Clear empties the hand and returns its cards without owners.
func (h *Hand) Clear() []*Card {
	out := h.cards
	h.cards = nil
	for _, c := range out {
		c.owner = nil
	}
	return out
}

func (h *Hand) adopt(p *Player) {
	h.player = p
	for _, c := range h.cards {
		c.owner = p
	}
}

// Transfer moves one card from one hand to another: remove, re-own, append.
func Transfer(from, to *Hand, id uuid.UUID) (*Card, bool) {
	c, ok := from.Remove(id)
	if !ok {
		return nil, false
	}
	to.Add(c)
	return c, true
}

// SwapHands exchanges the whole Hand objects of two players.
func SwapHands(a, b *Player) {
	if a == b {
		return
	}
	a.hand, b.hand = b.hand, a.hand
	a.hand.adopt(a)
	b.hand.adopt(b)
}
