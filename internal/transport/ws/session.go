package ws

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/work"
)

var (
	ErrSessionClosed  = errors.New("session: closed send")
	ErrSendBufferFull = errors.New("session: send buffer full")
)

// Handler receives session lifecycle callbacks and inbound text frames.
type Handler interface {
	// OnSessionOpen 会话建立后回调
	OnSessionOpen(sess *Session)
	// OnSessionClose 会话断开时回调, 每个会话只会回调一次
	OnSessionClose(sess *Session)
	// OnMessage 处理客户端发来的一帧 JSON 文本
	OnMessage(sess *Session, data []byte)
}

type SessionConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadDeadline time.Duration
	SendChanSize int
	ReadLimit    int64
}

type Session struct {
	id         string
	h          Handler
	connMu     sync.Mutex
	conn       *websocket.Conn
	config     *SessionConfig
	sendChan   chan []byte
	closed     atomic.Bool
	lastActive atomic.Value // time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	sendMu     sync.Mutex
}

func newNanoID() string {
	shortID, _ := gonanoid.New(10)
	return "NANO-" + shortID
}

func NewSession(h Handler, conn *websocket.Conn, config *SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       newNanoID(),
		h:        h,
		conn:     conn,
		config:   config,
		sendChan: make(chan []byte, config.SendChanSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.lastActive.Store(time.Now())
	if config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}
	conn.SetPongHandler(func(string) error {
		s.lastActive.Store(time.Now())
		return nil
	})
	s.h.OnSessionOpen(s)
	go s.readPump()
	go s.writePump()
	go s.heartbeat()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) GetRemoteIP() string {
	return s.conn.RemoteAddr().String()
}

func (s *Session) LastActive() time.Time {
	return s.lastActive.Load().(time.Time)
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Send queues one text frame. It blocks while the send buffer is full.
func (s *Session) Send(message []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return ErrSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// TrySend queues one text frame without blocking.
func (s *Session) TrySend(message []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return ErrSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (s *Session) readPump() {
	defer work.RecoverFromError(nil)
	defer s.Close(false)

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadDeadline)); err != nil {
			log.Errorf("sessionID=%q set read deadline error: %v", s.id, err)
			return
		}

		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warnf("sessionID=%q unexpected close: %v", s.id, err)
			}
			return
		}

		s.lastActive.Store(time.Now())

		switch msgType {
		case websocket.TextMessage:
			s.h.OnMessage(s, data)
		case websocket.BinaryMessage:
			log.Warnf("sessionID=%q binary frame ignored. len=%d", s.id, len(data))
		default:
			log.Warnf("sessionID=%q unsupported message type: %d", s.id, msgType)
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.sendChan:
			if !ok {
				return
			}
			if err := s.writeMessage(websocket.TextMessage, msg); err != nil {
				if errors.Is(err, ErrSessionClosed) || strings.Contains(err.Error(), "close sent") {
					log.Infof("sessionID=%q write aborted, reason: %v", s.id, err)
				} else {
					log.Errorf("sessionID=%q write error: %v", s.id, err)
				}
				s.Close(true)
				return
			}
		}
	}
}

func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			if s.Closed() {
				return
			}
			if time.Since(s.LastActive()) > s.config.ReadDeadline {
				log.Warnf("sessionID=%q heartbeat timeout", s.id)
				s.Close(true)
				return
			}
			s.writeControl(websocket.PingMessage, nil)
		}
	}
}

// Close tears the session down once and reports whether this call did it.
func (s *Session) Close(force bool) bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}

	s.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, s.closeReason(force)))

	s.cancel()

	s.sendMu.Lock()
	close(s.sendChan)
	s.sendMu.Unlock()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.h.OnSessionClose(s)
	return true
}

func (s *Session) closeReason(force bool) string {
	if !force {
		return "Normal Closure"
	}
	if time.Since(s.LastActive()) > s.config.ReadDeadline {
		return "Force Closure (Heartbeat timeout)"
	}
	return "Force Closure"
}

func (s *Session) writeControl(msgType int, data []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	_ = s.conn.WriteControl(msgType, data, time.Now().Add(s.config.WriteTimeout))
}

func (s *Session) writeMessage(msgType int, data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.Closed() {
		return ErrSessionClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(msgType, data)
}
