package biz

import (
	"github.com/google/wire"

	"github.com/yola1107/twisted/internal/conf"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewOptions, NewEngine, NewDispatcher)

// NewOptions maps the game section onto engine options.
func NewOptions(c *conf.Game) Options {
	return Options{
		Rules:        c.Rules(),
		RequireReady: c.RequireReady,
		Seed:         c.Seed,
	}
}
