package work

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"

	"github.com/yola1107/kratos/v2/log"
)

const (
	defaultWheelTick = 100 * time.Millisecond // 时间轮精度
	defaultWheelSize = 128                    // 时间轮槽位数
	maxIntervalJumps = 10000
)

// Executor runs scheduled callbacks, typically the event Loop.
type Executor interface {
	Post(job func())
}

// preciseEvery 精准的周期性定时器，防止时间漂移
type preciseEvery struct {
	interval time.Duration
	last     atomic.Value // time.Time
}

func (p *preciseEvery) Next(t time.Time) time.Time {
	last, _ := p.last.Load().(time.Time)
	if last.IsZero() {
		last = t
	}
	steps := 0
	next := last.Add(p.interval)
	for !next.After(t) {
		next = next.Add(p.interval)
		if steps++; steps > maxIntervalJumps {
			log.Warnf("[scheduler] skipped too many steps: %d", steps)
			break
		}
	}
	p.last.Store(next)
	return next
}

type SchedulerOption func(*Scheduler)

func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

func WithWheelSize(size int64) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.wheelSize = size
		}
	}
}

func WithExecutor(exec Executor) SchedulerOption {
	return func(s *Scheduler) { s.executor = exec }
}

type taskEntry struct {
	timer     *timingwheel.Timer
	cancelled atomic.Bool
	repeated  bool
}

// Scheduler 定时任务调度器，基于时间轮实现. Callbacks are handed to the executor.
type Scheduler struct {
	tick      time.Duration
	wheelSize int64
	executor  Executor
	tw        *timingwheel.TimingWheel
	tasks     sync.Map // map[int64]*taskEntry
	nextID    atomic.Int64
	shutdown  atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	once      sync.Once
}

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		tick:      defaultWheelTick,
		wheelSize: defaultWheelSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		log.Warn("[scheduler] no executor provided, tasks run in their own goroutines")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.tw = timingwheel.NewTimingWheel(s.tick, s.wheelSize)
	s.tw.Start()
	return s
}

func (s *Scheduler) Len() int {
	count := 0
	s.tasks.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Once 注册一次性任务
func (s *Scheduler) Once(delay time.Duration, f func()) int64 {
	return s.schedule(delay, false, f)
}

// Forever 注册周期任务
func (s *Scheduler) Forever(interval time.Duration, f func()) int64 {
	return s.schedule(interval, true, f)
}

// Cancel 取消指定任务
func (s *Scheduler) Cancel(taskID int64) {
	val, ok := s.tasks.LoadAndDelete(taskID)
	if !ok {
		return
	}
	entry := val.(*taskEntry)
	if entry.cancelled.CompareAndSwap(false, true) && entry.timer != nil {
		entry.timer.Stop()
	}
}

// CancelAll 取消所有任务
func (s *Scheduler) CancelAll() {
	s.tasks.Range(func(key, _ any) bool {
		s.Cancel(key.(int64))
		return true
	})
}

// Stop 停止调度器. Callbacks already handed to the executor still run there.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.shutdown.Store(true)
		s.CancelAll()
		s.cancel()
		s.tw.Stop()
		log.Info("[scheduler] stopped")
	})
}

func (s *Scheduler) schedule(delay time.Duration, repeated bool, f func()) int64 {
	if s.shutdown.Load() {
		log.Warn("[scheduler] shut down; task rejected")
		return -1
	}

	taskID := s.nextID.Add(1)
	entry := &taskEntry{repeated: repeated}
	s.tasks.Store(taskID, entry) // 先存储, 防止 timer 先触发找不到

	wrapped := func() {
		if entry.cancelled.Load() || s.ctx.Err() != nil {
			return
		}
		if !repeated {
			s.tasks.Delete(taskID)
		}
		s.execute(func() {
			if entry.cancelled.Load() {
				return
			}
			f()
		})
	}

	if repeated {
		entry.timer = s.tw.ScheduleFunc(&preciseEvery{interval: delay}, wrapped)
	} else {
		entry.timer = s.tw.AfterFunc(delay, wrapped)
	}
	return taskID
}

func (s *Scheduler) execute(f func()) {
	run := func() {
		defer RecoverFromError(nil)
		f()
	}
	if s.executor != nil {
		s.executor.Post(run)
		return
	}
	go run()
}
