package memory

import (
	"sync"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/game"
)

// SessionStore is the in-process implementation of app.SessionRepository.
// Live session state is authoritative here; cross-instance sharing is out
// of scope by design.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*game.Session),
	}
}

// Register stores the session under its PIN; false on collision.
func (s *SessionStore) Register(session *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Code()]; ok {
		return false
	}
	s.sessions[session.Code()] = session
	return true
}

func (s *SessionStore) Get(code string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
}

// Codes lists the PINs of all live sessions.
func (s *SessionStore) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	return codes
}
