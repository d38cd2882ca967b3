package model

// RuleSet describes how a deck is built and dealt.
type RuleSet struct {
	Values     int      // regular values 1..Values
	Copies     int      // copies of each regular value
	Singleton  int      // value kept with a single copy, 0 for none
	Twisted    []Effect // one Twisted card per effect
	BlackHoles int
	HandSize   int
	MinPlayers int
}

// BaseRules 基础规则: 42 regular + 3 twisted + 2 black hole = 47
func BaseRules() RuleSet {
	return RuleSet{
		Values:     21,
		Copies:     2,
		Singleton:  0,
		Twisted:    []Effect{EffectSneakAPeek, EffectSwapHand, EffectSwitchLight},
		BlackHoles: 2,
		HandSize:   3,
		MinPlayers: 2,
	}
}

// DeckSize is the card count BuildDeck produces.
func (r RuleSet) DeckSize() int {
	n := r.Values*r.Copies + len(r.Twisted) + r.BlackHoles
	if r.Singleton > 0 && r.Singleton <= r.Values && r.Copies > 1 {
		n -= r.Copies - 1
	}
	return n
}

// BuildDeck creates an unshuffled deck: regulars by value, then twisted, then black holes.
func (r RuleSet) BuildDeck() *Deck {
	cards := make([]*Card, 0, r.DeckSize())
	for v := 1; v <= r.Values; v++ {
		copies := r.Copies
		if v == r.Singleton {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			cards = append(cards, NewRegular(v))
		}
	}
	for _, e := range r.Twisted {
		cards = append(cards, NewTwisted(e))
	}
	for i := 0; i < r.BlackHoles; i++ {
		cards = append(cards, NewBlackHole())
	}
	return NewDeck(cards)
}
