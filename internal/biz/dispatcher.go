package biz

import (
	"context"

	"github.com/yola1107/kratos/v2/errors"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/store"
	"github.com/yola1107/twisted/internal/work"
	"github.com/yola1107/twisted/pkg/codes"
)

// Sink delivers one event to one transport session.
type Sink interface {
	Send(sessionID string, ev Event)
}

/*
	Dispatcher 命令分发

	ws 协程 --Submit--> Loop: Decode -> Engine.Execute -> deliver
	                           └─ Async.IO --> Pool --> Loop: Async.Then -> deliver
*/

type Dispatcher struct {
	loop   *work.Loop
	pool   *work.Pool
	engine *Engine
	sink   Sink
}

func NewDispatcher(loop *work.Loop, pool *work.Pool, engine *Engine) *Dispatcher {
	return &Dispatcher{loop: loop, pool: pool, engine: engine}
}

// SetSink must be called before the first Submit.
func (d *Dispatcher) SetSink(s Sink) {
	d.sink = s
}

// Submit queues a raw command from a session onto the loop. Once the loop is
// stopped the session gets a ServerShutdown error instead.
func (d *Dispatcher) Submit(actor Actor, name string, raw []byte) {
	err := d.loop.PostCtx(context.Background(), func() {
		p, err := Decode(name, raw)
		if err != nil {
			d.engine.metrics.observe(context.Background(), name, err)
			d.fail(actor, name, err)
			return
		}
		d.run(actor, p)
	})
	if err != nil {
		d.fail(actor, name, codes.ErrServerShutdown.WithCause(err))
	}
}

// SessionClosed disconnects the player bound to a closed session, if any.
func (d *Dispatcher) SessionClosed(sessionID string) {
	d.loop.Post(func() {
		pid, ok := d.engine.stores.Sessions.PlayerOf(sessionID)
		if !ok {
			return
		}
		d.run(Actor{SessionID: sessionID}, &UserDisconnect{PlayerID: pid})
	})
}

// Counts reads the store population from outside the loop.
func (d *Dispatcher) Counts(ctx context.Context) (store.Counts, error) {
	return work.PostAndWait(ctx, d.loop, d.engine.stores.Counts)
}

func (d *Dispatcher) run(actor Actor, p Payload) {
	res, err := d.engine.Execute(context.Background(), actor, p)
	if err != nil {
		d.fail(actor, p.Command(), err)
		return
	}
	d.deliver(actor, res.Events)
	if res.Async != nil {
		d.await(actor, p.Command(), res.Async)
	}
}

func (d *Dispatcher) await(actor Actor, name string, a *Async) {
	d.pool.Post(func() {
		ioErr := a.IO(context.Background())
		d.loop.Post(func() {
			evs, err := a.Then(ioErr)
			if err != nil {
				d.fail(actor, name, err)
				return
			}
			d.deliver(actor, evs)
		})
	})
}

// deliver routes private events to the actor and the rest to every bound
// session in To. The actor always gets a copy.
func (d *Dispatcher) deliver(actor Actor, evs []Event) {
	if d.sink == nil {
		return
	}
	sessions := d.engine.stores.Sessions
	for _, ev := range evs {
		if ev.Private {
			d.sink.Send(actor.SessionID, ev)
			continue
		}
		self := false
		for _, pid := range ev.To {
			sid, ok := sessions.SessionOf(pid)
			if !ok {
				continue
			}
			if sid == actor.SessionID {
				self = true
			}
			d.sink.Send(sid, ev)
		}
		if !self {
			d.sink.Send(actor.SessionID, ev)
		}
	}
}

func (d *Dispatcher) fail(actor Actor, name string, err error) {
	e := errors.FromError(err)
	log.Warnf("command failed. session=%s cmd=%s reason=%s md=%v cause=%v",
		actor.SessionID, name, e.Reason, e.Metadata, e.Unwrap())
	if d.sink != nil {
		d.sink.Send(actor.SessionID, ErrorEvent(err))
	}
}
