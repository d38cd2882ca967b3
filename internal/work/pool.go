package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/yola1107/kratos/v2/log"
)

// PoolStatus 当前池状态
type PoolStatus struct {
	Capacity int // 池最大容量
	Running  int // 当前运行中协程数
	Free     int // 空闲协程数（Capacity - Running）
}

type PoolOption func(*Pool)

// WithFallback 自定义任务提交失败处理策略
func WithFallback(fallback func(ctx context.Context, fn func())) PoolOption {
	return func(p *Pool) {
		p.fallback = fallback
	}
}

// WithPoolOptions 自定义ants池选项
func WithPoolOptions(opts ...ants.Option) PoolOption {
	return func(p *Pool) {
		p.poolOptions = append(p.poolOptions, opts...)
	}
}

// Pool runs blocking I/O off the event loop on an ants goroutine pool.
type Pool struct {
	mu          sync.RWMutex
	pool        *ants.Pool
	size        int
	fallback    func(context.Context, func())
	poolOptions []ants.Option
}

func NewPool(size int, opts ...PoolOption) *Pool {
	p := &Pool{
		size: size,
		fallback: func(ctx context.Context, fn func()) {
			go safeRun(ctx, fn)
		},
		poolOptions: []ants.Option{
			ants.WithExpiryDuration(60 * time.Second), // 每60s清理一次闲置 worker
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		log.Warnf("pool already started.")
		return nil
	}
	pool, err := ants.NewPool(p.size, p.poolOptions...)
	if err != nil {
		return fmt.Errorf("pool init failed: %w", err)
	}
	p.pool = pool
	log.Infof("pool start... [size:%d]", p.size)
	return nil
}

func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		pool := p.pool
		p.pool = nil
		pool.Release()
		log.Infof("pool stopping [running:%d]", pool.Running())
	}
}

func (p *Pool) Status() PoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil {
		return PoolStatus{}
	}
	capacity, running := p.pool.Cap(), p.pool.Running()
	return PoolStatus{
		Capacity: capacity,
		Running:  running,
		Free:     max(capacity-running, 0),
	}
}

func (p *Pool) Post(job func()) {
	p.PostCtx(context.Background(), job)
}

func (p *Pool) PostCtx(ctx context.Context, job func()) {
	if ctx.Err() == nil {
		p.submit(ctx, job)
	}
}

func (p *Pool) submit(ctx context.Context, fn func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.pool == nil || p.pool.IsClosed() {
		p.triggerFallback(ctx, fn, "pool not started or pool is closed.")
		return
	}
	if err := p.pool.Submit(func() { safeRun(ctx, fn) }); err != nil {
		p.triggerFallback(ctx, fn, err.Error())
	}
}

func (p *Pool) triggerFallback(ctx context.Context, fn func(), reason string) {
	log.Warnf("pool fallback. reason=%s", reason)
	p.fallback(ctx, fn)
}

func safeRun(ctx context.Context, fn func()) {
	defer RecoverFromError(nil)
	if ctx.Err() == nil {
		fn()
	}
}
