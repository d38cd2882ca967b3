package server

import (
	"context"

	"github.com/panjf2000/ants/v2"
	"github.com/yola1107/kratos/v2/log"
	"github.com/yola1107/kratos/v2/transport"

	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/lifecycle"
	"github.com/yola1107/twisted/internal/work"
)

var _ transport.Server = (*Runtime)(nil)

func NewLoop(c *conf.Loop) *work.Loop {
	return work.NewLoop(c.Pending)
}

// NewPool never blocks the caller: a saturated pool hands the job to the
// fallback goroutine instead.
func NewPool(c *conf.Loop) *work.Pool {
	return work.NewPool(c.PoolSize, work.WithPoolOptions(ants.WithNonblocking(true)))
}

func NewScheduler(lp *work.Loop) (*work.Scheduler, func()) {
	sched := work.NewScheduler(work.WithExecutor(lp))
	return sched, sched.Stop
}

// Runtime owns the event loop, the I/O pool and the idle-lobby sweep, and
// runs them as one kratos server.
type Runtime struct {
	loop    *work.Loop
	pool    *work.Pool
	sched   *work.Scheduler
	manager *lifecycle.Manager
	reaper  *lifecycle.Reaper
}

func NewRuntime(lp *work.Loop, pool *work.Pool, sched *work.Scheduler, m *lifecycle.Manager, r *lifecycle.Reaper) *Runtime {
	return &Runtime{loop: lp, pool: pool, sched: sched, manager: m, reaper: r}
}

func (r *Runtime) Start(context.Context) error {
	if err := r.pool.Start(); err != nil {
		return err
	}
	r.loop.Start()
	// Start 只在 loop 上修改 taskID
	return r.loop.PostCtx(context.Background(), r.manager.Start)
}

// Stop halts in order: sweep, scheduler, loop, pending snapshot deletes, pool.
func (r *Runtime) Stop(ctx context.Context) error {
	if _, err := work.PostAndWait(ctx, r.loop, func() struct{} {
		r.manager.Stop()
		return struct{}{}
	}); err != nil {
		log.Warnf("runtime stop: sweep not cancelled: %v", err)
	}
	r.sched.Stop()
	r.loop.Stop()

	done := make(chan struct{})
	go func() {
		r.reaper.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warnf("runtime stop: snapshot deletes still pending: %v", ctx.Err())
	}
	r.pool.Stop()
	return nil
}
