package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/internal/work"
)

const (
	DefaultInterval  = time.Minute
	DefaultThreshold = 30 * time.Minute
)

/*
	Manager 闲置大厅回收

	定时器回调通过 scheduler 的 executor 投递到事件循环, 每次清扫与命令串行执行.
	超过阈值未活动的大厅整体 Teardown.
*/

type Manager struct {
	reaper    *Reaper
	stores    *store.Stores
	sched     *work.Scheduler
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	taskID    int64
	reaped    metric.Int64Counter
}

type Option func(*Manager)

func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithThreshold(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.threshold = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(reaper *Reaper, s *store.Stores, sched *work.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		reaper:    reaper,
		stores:    s,
		sched:     sched,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		now:       time.Now,
		taskID:    -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	reaped, err := otel.Meter("github.com/yola1107/twisted/internal/lifecycle").Int64Counter(
		"twisted.lobbies.reaped",
		metric.WithDescription("Lobbies torn down for inactivity."),
	)
	if err != nil {
		otel.Handle(err)
	}
	m.reaped = reaped
	return m
}

// Start registers the periodic sweep.
func (m *Manager) Start() {
	if m.taskID >= 0 {
		return
	}
	m.taskID = m.sched.Forever(m.interval, func() { m.Sweep(m.now()) })
	log.Infof("lifecycle sweep started. interval=%v threshold=%v", m.interval, m.threshold)
}

// Stop cancels the periodic sweep. A sweep already queued still runs.
func (m *Manager) Stop() {
	if m.taskID < 0 {
		return
	}
	m.sched.Cancel(m.taskID)
	m.taskID = -1
	log.Infof("lifecycle sweep stopped.")
}

// Sweep tears down every lobby idle for longer than the threshold and returns
// how many were reaped. Snapshots of evicted games idle as long are deleted too.
// It must run on the event loop.
func (m *Manager) Sweep(now time.Time) int {
	var idle []*model.Lobby
	m.stores.Lobbies.Range(func(_ uuid.UUID, l *model.Lobby) bool {
		if l.IdleFor(now) > m.threshold {
			idle = append(idle, l)
		}
		return true
	})
	for _, l := range idle {
		log.Infof("reaping idle lobby. %s idle=%v", l.Desc(), l.IdleFor(now))
		m.reaper.Teardown(l)
	}
	m.reaper.Expire(now, m.threshold)
	if len(idle) > 0 && m.reaped != nil {
		m.reaped.Add(context.Background(), int64(len(idle)))
	}
	return len(idle)
}
