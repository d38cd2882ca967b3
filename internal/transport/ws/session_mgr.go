package ws

import (
	"sync"
	"sync/atomic"

	"github.com/yola1107/kratos/v2/log"
)

type SessionManager struct {
	count    atomic.Int32
	sessions sync.Map
}

func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

func (m *SessionManager) Len() int32 {
	return m.count.Load()
}

func (m *SessionManager) Add(session *Session) {
	if _, loaded := m.sessions.LoadOrStore(session.ID(), session); !loaded {
		count := m.count.Add(1)
		log.Infof("start ws serve. %q with %q key=%q sessions=%d",
			session.conn.LocalAddr(), session.conn.RemoteAddr(), session.ID(), count)
	}
}

func (m *SessionManager) Delete(session *Session) {
	if _, loaded := m.sessions.LoadAndDelete(session.ID()); loaded {
		count := m.count.Add(-1)
		log.Infof("disconnect. key=%q sessions=%d", session.ID(), count)
	}
}

func (m *SessionManager) Get(sessionID string) *Session {
	v, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil
	}
	return v.(*Session)
}

func (m *SessionManager) Range(fn func(*Session)) {
	m.sessions.Range(func(_, v any) bool {
		fn(v.(*Session))
		return true
	})
}

// CloseAllSessions 强制关闭所有会话
func (m *SessionManager) CloseAllSessions() {
	m.Range(func(s *Session) {
		s.Close(true)
	})
}
