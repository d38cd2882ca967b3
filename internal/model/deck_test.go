package model

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/twisted/pkg/codes"
)

func countKinds(cards []*Card) (regular map[int]int, twisted map[Effect]int, blackHoles int) {
	regular = map[int]int{}
	twisted = map[Effect]int{}
	for _, c := range cards {
		switch c.Kind {
		case KindRegular:
			regular[c.Value]++
		case KindTwisted:
			twisted[c.Effect]++
		case KindBlackHole:
			blackHoles++
		}
	}
	return
}

func TestBaseRulesDeck(t *testing.T) {
	rules := BaseRules()
	deck := rules.BuildDeck()
	require.Equal(t, 47, deck.Len())
	require.Equal(t, rules.DeckSize(), deck.Len())

	regular, twisted, blackHoles := countKinds(deck.Cards())
	assert.Len(t, regular, 21)
	for v, n := range regular {
		assert.Equal(t, 2, n, "value %d", v)
	}
	assert.Equal(t, 2, blackHoles)
	assert.Equal(t, map[Effect]int{EffectSneakAPeek: 1, EffectSwapHand: 1, EffectSwitchLight: 1}, twisted)
}

func TestSingletonRule(t *testing.T) {
	rules := BaseRules()
	rules.Singleton = 13
	deck := rules.BuildDeck()
	require.Equal(t, 46, deck.Len())
	require.Equal(t, rules.DeckSize(), deck.Len())

	regular, _, _ := countKinds(deck.Cards())
	singles := 0
	for v, n := range regular {
		if n == 1 {
			singles++
			assert.Equal(t, 13, v)
			continue
		}
		assert.Equal(t, 2, n)
	}
	assert.Equal(t, 1, singles)
}

func TestDeckShuffleIsPermutation(t *testing.T) {
	deck := BaseRules().BuildDeck()
	before := deck.CardIDs()

	for seed := int64(1); seed <= 5; seed++ {
		deck.Shuffle(rand.New(rand.NewSource(seed)))
		after := deck.CardIDs()
		assert.ElementsMatch(t, before, after)
		assert.NotEqual(t, before, after)
	}
	assert.Equal(t, 47, deck.Len())
}

func TestDeckDraw(t *testing.T) {
	a, b := NewRegular(1), NewRegular(2)
	deck := NewDeck([]*Card{a, b})

	c, ok := deck.Draw()
	require.True(t, ok)
	assert.Same(t, a, c)

	c, ok = deck.Draw()
	require.True(t, ok)
	assert.Same(t, b, c)

	c, ok = deck.Draw()
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestDeckDrawN(t *testing.T) {
	deck := BaseRules().BuildDeck()
	top := deck.CardIDs()[:5]

	cards, err := deck.DrawN(5)
	require.NoError(t, err)
	assert.Equal(t, top, cardIDs(cards))
	assert.Equal(t, 42, deck.Len())

	_, err = deck.DrawN(43)
	require.Error(t, err)
	assert.True(t, codes.ErrInsufficientCards.Is(err))
	assert.Equal(t, 42, deck.Len(), "failed bulk draw must not consume cards")
}

func TestDeckDistribute(t *testing.T) {
	t.Run("round robin in join order", func(t *testing.T) {
		deck := BaseRules().BuildDeck()
		ids := deck.CardIDs()
		p1, p2 := NewPlayer("a"), NewPlayer("b")

		dealt := deck.Distribute([]*Player{p1, p2}, 3)
		assert.Equal(t, 6, dealt)
		assert.Equal(t, []uuid.UUID{ids[0], ids[2], ids[4]}, p1.Hand().CardIDs())
		assert.Equal(t, []uuid.UUID{ids[1], ids[3], ids[5]}, p2.Hand().CardIDs())
		for _, c := range p1.Hand().Cards() {
			assert.Same(t, p1, c.Owner())
		}
	})

	t.Run("stops silently when empty", func(t *testing.T) {
		deck := NewDeck([]*Card{NewRegular(1), NewRegular(2), NewRegular(3), NewRegular(4), NewRegular(5)})
		p1, p2 := NewPlayer("a"), NewPlayer("b")

		dealt := deck.Distribute([]*Player{p1, p2}, 3)
		assert.Equal(t, 5, dealt)
		assert.Equal(t, 3, p1.Hand().Len())
		assert.Equal(t, 2, p2.Hand().Len())
		assert.True(t, deck.Empty())
	})
}
