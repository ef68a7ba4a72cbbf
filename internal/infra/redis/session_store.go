package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manhtruong03/real-time-quiz-sub000/internal/game"
)

// SessionStore keeps live sessions in-process (the state machine requires
// a single serialized owner) while mirroring liveness markers into Redis:
// SET game:session:{pin} {quizID}. Operators can list active PINs, and the
// markers stop a second instance from reusing a PIN that is still live.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*game.Session),
	}
}

func (s *SessionStore) Register(session *game.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := session.Code()
	if _, ok := s.sessions[code]; ok {
		return false
	}
	// SETNX so a PIN held by another instance also counts as taken.
	ok, err := s.client.SetNX(context.Background(), s.key(code), session.Quiz().ID, s.ttl).Result()
	if err == nil && !ok {
		return false
	}
	s.sessions[code] = session
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
	if _, ok := s.sessions[code]; !ok {
		return
	}
	delete(s.sessions, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *SessionStore) key(code string) string {
	return "game:session:" + code
}
