package work

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/yola1107/kratos/v2/log"
)

/*
	单协程任务循环 job loop

	所有命令、IO 回调、定时清理都投递到同一个 Loop 依次执行,
	一个 job 执行完成前不会开始下一个.
*/

const defaultPending = 1024

var ErrLoopStopped = errors.New("work: loop stopped")

type Loop struct {
	jobs    chan func()
	quit    chan struct{}
	done    chan struct{}
	running atomic.Bool
	once    sync.Once
}

// NewLoop 创建一个Loop队列，pending为队列缓冲长度
func NewLoop(pending int) *Loop {
	if pending <= 0 {
		pending = defaultPending
	}
	return &Loop{
		jobs: make(chan func(), pending),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (lp *Loop) Start() {
	if !lp.running.CompareAndSwap(false, true) {
		log.Warnf("loop already started.")
		return
	}
	log.Infof("loop start .. [pending:%d]", cap(lp.jobs))
	go lp.run()
}

func (lp *Loop) run() {
	defer close(lp.done)
	for {
		select {
		case <-lp.quit:
			log.Info("loop routine stop.")
			return
		case job := <-lp.jobs:
			lp.exec(job)
		}
	}
}

func (lp *Loop) exec(job func()) {
	defer RecoverFromError(nil)
	job()
}

// Stop ends the routine after the job in flight. Queued jobs are dropped.
func (lp *Loop) Stop() {
	lp.once.Do(func() {
		close(lp.quit)
		if lp.running.Load() {
			<-lp.done
		}
	})
}

func (lp *Loop) Jobs() int {
	return len(lp.jobs)
}

// Post enqueues job in FIFO order. It blocks while the queue is full and must
// not be called from inside a job.
func (lp *Loop) Post(job func()) {
	if err := lp.PostCtx(context.Background(), job); err != nil {
		log.Warnf("loop post dropped: %v", err)
	}
}

func (lp *Loop) PostCtx(ctx context.Context, job func()) error {
	select {
	case <-lp.quit:
		return ErrLoopStopped
	default:
	}
	select {
	case lp.jobs <- job:
		return nil
	case <-lp.quit:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PostAndWait runs job on the loop and waits for its result.
func PostAndWait[T any](ctx context.Context, lp *Loop, job func() T) (T, error) {
	var zero T
	ch := make(chan T, 1)
	if err := lp.PostCtx(ctx, func() { ch <- job() }); err != nil {
		return zero, err
	}
	select {
	case v := <-ch:
		return v, nil
	case <-lp.quit:
		return zero, ErrLoopStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func RecoverFromError(cb func(e any)) {
	if e := recover(); e != nil {
		log.Errorf("Recover => %v\n%s\n", e, debug.Stack())
		if cb != nil {
			cb(e)
		}
	}
}
