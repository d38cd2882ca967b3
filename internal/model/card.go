package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the card variant discriminant.
type Kind int32

const (
	KindRegular Kind = iota
	KindTwisted
	KindBlackHole
)

var kindNames = map[Kind]string{
	KindRegular:   "Regular",
	KindTwisted:   "Twisted",
	KindBlackHole: "BlackHole",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", s)
}

// Effect is the payload of a Twisted card.
type Effect int32

const (
	EffectNone Effect = iota
	EffectSneakAPeek
	EffectSwapHand
	EffectSwitchLight
)

var effectNames = map[Effect]string{
	EffectNone:        "",
	EffectSneakAPeek:  "SneakAPeek",
	EffectSwapHand:    "SwapHand",
	EffectSwitchLight: "SwitchLight",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Effect(%d)", e)
}

// ParseEffect accepts "" as EffectNone.
func ParseEffect(s string) (Effect, error) {
	for e, name := range effectNames {
		if strings.EqualFold(name, s) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown special effect %q", s)
}

// Card membership is defined by the container (Deck, Hand or Table) holding it.
// owner is a convenience back-pointer kept in sync by Hand and must not be used
// to infer membership.
type Card struct {
	ID      uuid.UUID
	Kind    Kind
	Value   int    // Regular only
	Effect  Effect // Twisted only
	Graphic string

	owner *Player
}

func NewRegular(value int) *Card {
	return &Card{
		ID:      uuid.New(),
		Kind:    KindRegular,
		Value:   value,
		Graphic: fmt.Sprintf("regular_%02d.png", value),
	}
}

func NewTwisted(effect Effect) *Card {
	return &Card{
		ID:      uuid.New(),
		Kind:    KindTwisted,
		Effect:  effect,
		Graphic: "twisted_" + strings.ToLower(effect.String()) + ".png",
	}
}

func NewBlackHole() *Card {
	return &Card{
		ID:      uuid.New(),
		Kind:    KindBlackHole,
		Graphic: "black_hole.png",
	}
}

// Owner returns the player whose hand currently holds the card, if any.
func (c *Card) Owner() *Player {
	return c.owner
}

// Matches reports whether c and o form a discardable pair.
func (c *Card) Matches(o *Card) bool {
	if c == nil || o == nil || c.ID == o.ID {
		return false
	}
	switch c.Kind {
	case KindRegular:
		return o.Kind == KindRegular && c.Value == o.Value
	case KindTwisted, KindBlackHole:
		return false
	default:
		panic(fmt.Sprintf("unhandled card kind %v", c.Kind))
	}
}

func (c *Card) Desc() string {
	switch c.Kind {
	case KindRegular:
		return fmt.Sprintf("(%s Regular:%d)", c.ID, c.Value)
	case KindTwisted:
		return fmt.Sprintf("(%s Twisted:%s)", c.ID, c.Effect)
	case KindBlackHole:
		return fmt.Sprintf("(%s BlackHole)", c.ID)
	default:
		panic(fmt.Sprintf("unhandled card kind %v", c.Kind))
	}
}

func cardIDs(cards []*Card) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}
