package model

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/yola1107/twisted/pkg/codes"
	"github.com/yola1107/twisted/pkg/ext"
)

/*
	Deck 牌堆, 队首为顶牌
*/

type Deck struct {
	ID    uuid.UUID
	cards []*Card
}

func NewDeck(cards []*Card) *Deck {
	return NewDeckWithID(uuid.New(), cards)
}

func NewDeckWithID(id uuid.UUID, cards []*Card) *Deck {
	return &Deck{ID: id, cards: append([]*Card(nil), cards...)}
}

func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Cards returns the remaining cards, top first.
func (d *Deck) Cards() []*Card {
	return append([]*Card(nil), d.cards...)
}

func (d *Deck) CardIDs() []uuid.UUID {
	return cardIDs(d.cards)
}

// Shuffle 洗牌
func (d *Deck) Shuffle(r *rand.Rand) {
	ext.Shuffle(r, d.cards)
}

// Draw pops the top card. It reports false on an empty deck instead of failing.
func (d *Deck) Draw() (*Card, bool) {
	if len(d.cards) == 0 {
		return nil, false
	}
	c := d.cards[0]
	d.cards[0] = nil
	d.cards = d.cards[1:]
	return c, true
}

// DrawN pops n cards or none at all.
func (d *Deck) DrawN(n int) ([]*Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, codes.ErrInsufficientCards
	}
	out := append([]*Card(nil), d.cards[:n]...)
	d.cards = d.cards[n:]
	return out, nil
}

// Distribute 发牌: portion cards per player, round-robin in list order.
// Stops silently once the deck is empty and returns how many cards were dealt.
func (d *Deck) Distribute(players []*Player, portion int) int {
	dealt := 0
	for round := 0; round < portion; round++ {
		for _, p := range players {
			c, ok := d.Draw()
			if !ok {
				return dealt
			}
			p.Hand().Add(c)
			dealt++
		}
	}
	return dealt
}

// Release empties the deck and returns what it held.
func (d *Deck) Release() []*Card {
	out := d.cards
	d.cards = nil
	return out
}
