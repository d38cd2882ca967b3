package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandAddRemove(t *testing.T) {
	p := NewPlayer("alice")
	c1, c2, c3 := NewRegular(1), NewTwisted(EffectSwapHand), NewBlackHole()
	p.Hand().Add(c1, c2, c3)

	assert.Equal(t, []uuid.UUID{c1.ID, c2.ID, c3.ID}, p.Hand().CardIDs())
	assert.Same(t, p, c2.Owner())

	got, ok := p.Hand().Remove(c2.ID)
	require.True(t, ok)
	assert.Same(t, c2, got)
	assert.Nil(t, c2.Owner())
	assert.Equal(t, []uuid.UUID{c1.ID, c3.ID}, p.Hand().CardIDs(), "insertion order is kept")

	_, ok = p.Hand().Remove(c2.ID)
	assert.False(t, ok)
}

func TestTransferIsConservative(t *testing.T) {
	a, b := NewPlayer("a"), NewPlayer("b")
	cards := []*Card{NewRegular(1), NewRegular(2), NewRegular(3)}
	a.Hand().Add(cards...)
	b.Hand().Add(NewRegular(9))

	for _, c := range cards {
		moved, ok := Transfer(a.Hand(), b.Hand(), c.ID)
		require.True(t, ok)
		assert.Same(t, c, moved)
		assert.False(t, a.Hand().Contains(c.ID))
		assert.True(t, b.Hand().Contains(c.ID))
		assert.Same(t, b, c.Owner())
	}
	assert.Equal(t, 0, a.Hand().Len())
	assert.Equal(t, 4, b.Hand().Len())

	_, ok := Transfer(a.Hand(), b.Hand(), uuid.New())
	assert.False(t, ok)
}

func TestSwapHands(t *testing.T) {
	a, b := NewPlayer("a"), NewPlayer("b")
	ca, cb := NewRegular(1), NewRegular(2)
	a.Hand().Add(ca)
	b.Hand().Add(cb, NewRegular(3))
	handA, handB := a.Hand(), b.Hand()

	SwapHands(a, b)

	assert.Same(t, handB, a.Hand())
	assert.Same(t, handA, b.Hand())
	assert.Same(t, a, a.Hand().Owner())
	assert.Same(t, b, b.Hand().Owner())
	assert.Same(t, b, ca.Owner())
	assert.Same(t, a, cb.Owner())
	assert.Equal(t, 2, a.Hand().Len())
	assert.Equal(t, 1, b.Hand().Len())

	SwapHands(a, a)
	assert.Same(t, handB, a.Hand())
}

func TestCardMatches(t *testing.T) {
	r1, r1b, r2 := NewRegular(4), NewRegular(4), NewRegular(5)
	tw, bh := NewTwisted(EffectSwitchLight), NewBlackHole()

	assert.True(t, r1.Matches(r1b))
	assert.False(t, r1.Matches(r1))
	assert.False(t, r1.Matches(r2))
	assert.False(t, tw.Matches(r1))
	assert.False(t, bh.Matches(NewBlackHole()))
}

func TestParseNames(t *testing.T) {
	for _, k := range []Kind{KindRegular, KindTwisted, KindBlackHole} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	for _, e := range []Effect{EffectNone, EffectSneakAPeek, EffectSwapHand, EffectSwitchLight} {
		got, err := ParseEffect(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
	_, err := ParseKind("joker")
	assert.Error(t, err)
	_, err = ParseStatus("paused")
	assert.Error(t, err)
}
