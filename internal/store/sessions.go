package store

import (
	"github.com/google/uuid"
)

// Sessions binds transport sessions to players, one session per player.
type Sessions struct {
	byPlayer  map[uuid.UUID]string
	bySession map[string]uuid.UUID
}

func NewSessions() *Sessions {
	return &Sessions{
		byPlayer:  make(map[uuid.UUID]string),
		bySession: make(map[string]uuid.UUID),
	}
}

// Bind replaces any earlier binding of either side.
func (s *Sessions) Bind(session string, player uuid.UUID) {
	s.UnbindSession(session)
	s.UnbindPlayer(player)
	s.bySession[session] = player
	s.byPlayer[player] = session
}

func (s *Sessions) UnbindSession(session string) {
	if p, ok := s.bySession[session]; ok {
		delete(s.byPlayer, p)
		delete(s.bySession, session)
	}
}

func (s *Sessions) UnbindPlayer(player uuid.UUID) {
	if sess, ok := s.byPlayer[player]; ok {
		delete(s.bySession, sess)
		delete(s.byPlayer, player)
	}
}

func (s *Sessions) PlayerOf(session string) (uuid.UUID, bool) {
	p, ok := s.bySession[session]
	return p, ok
}

func (s *Sessions) SessionOf(player uuid.UUID) (string, bool) {
	sess, ok := s.byPlayer[player]
	return sess, ok
}

func (s *Sessions) Len() int {
	return len(s.bySession)
}
