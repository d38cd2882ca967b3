package lifecycle

import (
	"github.com/google/wire"

	"github.com/yola1107/twisted/internal/biz"
	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/internal/work"
)

// ProviderSet is lifecycle providers.
var ProviderSet = wire.NewSet(NewReaper, NewManagerFromConf, wire.Bind(new(biz.Reaper), new(*Reaper)))

func NewManagerFromConf(c *conf.Lifecycle, reaper *Reaper, s *store.Stores, sched *work.Scheduler) *Manager {
	return NewManager(reaper, s, sched, WithInterval(c.Interval.Std()), WithThreshold(c.Threshold.Std()))
}
