package memory

import (
	"context"
	"sync"
	"time"

	"guidely-quiz-service/internal/app"
)

// DefaultIdleTTL is how long an unwatched session is kept after its last
// activity.
const DefaultIdleTTL = 30 * time.Minute

// SessionStore is an in-memory implementation of app.SessionRepository.
// The session object is the only copy, so Save has nothing to do.
type SessionStore struct {
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*app.Session
	lastSweep time.Time
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithTTL(DefaultIdleTTL)
}

// NewSessionStoreWithTTL evicts unwatched sessions idle for longer than ttl.
// A ttl <= 0 keeps them until released.
func NewSessionStoreWithTTL(ttl time.Duration) *SessionStore {
	return &SessionStore{
		idleTTL:  ttl,
		now:      time.Now,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(_ context.Context, userID string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	if session, ok := s.sessions[userID]; ok {
		return session, nil
	}
	session := app.NewSession(userID)
	s.sessions[userID] = session
	return session, nil
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Save(context.Context, string, app.SessionRecord) error {
	return nil
}

// ReleaseIfIdle drops an unwatched session once nothing in it can be lost:
// it is blank, or its attempt is submitted and the snapshot lives in the
// result store. Unwatched sessions in progress wait for the idle sweep.
func (s *SessionStore) ReleaseIfIdle(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return
	}
	if session.IsIdle() && (session.IsBlank() || session.IsSubmitted()) {
		delete(s.sessions, userID)
	}
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.idleTTL <= 0 || now.Sub(s.lastSweep) < s.idleTTL {
		return
	}
	s.lastSweep = now
	for id, session := range s.sessions {
		if session.IsIdle() && now.Sub(session.LastActive()) > s.idleTTL {
			delete(s.sessions, id)
		}
	}
}
