package service

import (
	"strings"
	"sync"

	"github.com/google/wire"
	jsoniter "github.com/json-iterator/go"
	"github.com/yola1107/kratos/v2/log"
	"golang.org/x/time/rate"

	"github.com/yola1107/twisted/internal/biz"
	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/transport/ws"
	"github.com/yola1107/twisted/pkg/codes"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewService, wire.Bind(new(ws.Handler), new(*Service)))

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Inbound is one client frame: {"command": "<Name>", "payload": {...}}.
type Inbound struct {
	Command string              `json:"command"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// Outbound is one server frame: {"event": "<Name>", "data": {...}}.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn is the part of a transport session the service writes to.
type Conn interface {
	ID() string
	TrySend(message []byte) error
	Close(force bool) bool
}

type client struct {
	conn    Conn
	limiter *rate.Limiter
}

// Service bridges websocket sessions and the command dispatcher. Frames from a
// session are submitted in arrival order; events come back through Send.
type Service struct {
	disp  *biz.Dispatcher
	limit rate.Limit
	burst int

	mu      sync.RWMutex
	clients map[string]*client
}

func NewService(c *conf.Server, disp *biz.Dispatcher) *Service {
	s := &Service{
		disp:    disp,
		limit:   rate.Inf,
		clients: make(map[string]*client),
	}
	if w := c.Websocket; w != nil && w.RateLimit > 0 {
		s.limit = rate.Limit(w.RateLimit)
		s.burst = max(w.Burst, 1)
	}
	disp.SetSink(s)
	return s
}

func (s *Service) OnSessionOpen(sess *ws.Session) { s.open(sess) }

func (s *Service) OnSessionClose(sess *ws.Session) { s.close(sess.ID()) }

func (s *Service) OnMessage(sess *ws.Session, data []byte) { s.message(sess, data) }

// Sessions returns the number of open sessions.
func (s *Service) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Service) open(conn Conn) {
	s.mu.Lock()
	s.clients[conn.ID()] = &client{conn: conn, limiter: rate.NewLimiter(s.limit, s.burst)}
	s.mu.Unlock()
}

func (s *Service) close(id string) {
	s.mu.Lock()
	_, ok := s.clients[id]
	delete(s.clients, id)
	s.mu.Unlock()
	if ok {
		s.disp.SessionClosed(id)
	}
}

func (s *Service) lookup(id string) (*client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	return c, ok
}

func (s *Service) message(conn Conn, data []byte) {
	c, ok := s.lookup(conn.ID())
	if !ok {
		return
	}
	actor := biz.Actor{SessionID: conn.ID()}
	if !c.limiter.Allow() {
		s.Send(actor.SessionID, biz.ErrorEvent(codes.ErrTooManyRequests))
		return
	}
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil || strings.TrimSpace(in.Command) == "" {
		md := map[string]string{"reason": "malformed envelope"}
		if err == nil {
			md["reason"] = "missing command"
		}
		s.Send(actor.SessionID, biz.ErrorEvent(codes.ErrInvalidPayload.WithCause(err).WithMetadata(md)))
		return
	}
	s.disp.Submit(actor, in.Command, in.Payload)
}

// Send encodes ev and queues it on the session. It never blocks: a session
// whose buffer is full is dropped.
func (s *Service) Send(sessionID string, ev biz.Event) {
	c, ok := s.lookup(sessionID)
	if !ok {
		return
	}
	data, err := json.Marshal(Outbound{Event: ev.Name, Data: ev.Data})
	if err != nil {
		log.Errorf("encode event failed. session=%s event=%s err=%v", sessionID, ev.Name, err)
		return
	}
	switch err := c.conn.TrySend(data); err {
	case nil:
	case ws.ErrSendBufferFull:
		log.Warnf("session too slow, closing. session=%s event=%s", sessionID, ev.Name)
		go c.conn.Close(true)
	default:
		log.Debugf("send dropped. session=%s event=%s err=%v", sessionID, ev.Name, err)
	}
}
