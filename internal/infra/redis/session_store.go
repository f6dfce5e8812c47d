package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Live sessions stay in a local map so broadcasts remain in process; Redis
// holds a mirror of every answer set so a session survives a restart or can
// be picked up by another instance once the local copy is released.
//
//	HSET guidely:session:{userID}:answers {questionID} {value}
//	HSET guidely:session:{userID}:meta    state {state} attempt {n}
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

// GetOrCreate loads the mirror without holding the store lock; when two
// callers race on the same user the first insert wins.
func (s *SessionStore) GetOrCreate(ctx context.Context, userID string) (*app.Session, error) {
	if session, ok := s.Get(userID); ok {
		return session, nil
	}

	rec, found, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session, nil
	}
	var session *app.Session
	if found {
		session = app.RestoreSession(userID, rec)
	} else {
		session = app.NewSession(userID)
	}
	s.sessions[userID] = session
	return session, nil
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Save replaces the mirrored record in one transaction.
func (s *SessionStore) Save(ctx context.Context, userID string, rec app.SessionRecord) error {
	answersKey, metaKey := s.answersKey(userID), s.metaKey(userID)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, answersKey)
	if len(rec.Answers) > 0 {
		values := make(map[string]interface{}, len(rec.Answers))
		for id, v := range rec.Answers {
			values[id] = v
		}
		pipe.HSet(ctx, answersKey, values)
	}
	pipe.HSet(ctx, metaKey, "state", string(rec.State), "attempt", rec.Attempt)
	if s.ttl > 0 {
		pipe.Expire(ctx, answersKey, s.ttl)
		pipe.Expire(ctx, metaKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror session %s: %w", userID, err)
	}
	return nil
}

// ReleaseIfIdle drops the local copy of an unwatched session; the mirror
// stays in Redis until its TTL runs out.
func (s *SessionStore) ReleaseIfIdle(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return
	}
	if session.IsIdle() {
		delete(s.sessions, userID)
	}
}

func (s *SessionStore) load(ctx context.Context, userID string) (app.SessionRecord, bool, error) {
	meta, err := s.client.HGetAll(ctx, s.metaKey(userID)).Result()
	if err != nil {
		return app.SessionRecord{}, false, fmt.Errorf("load session %s: %w", userID, err)
	}
	if len(meta) == 0 {
		return app.SessionRecord{}, false, nil
	}
	raw, err := s.client.HGetAll(ctx, s.answersKey(userID)).Result()
	if err != nil {
		return app.SessionRecord{}, false, fmt.Errorf("load answers %s: %w", userID, err)
	}

	answers := make(domain.AnswerSet, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		answers[id] = n
	}
	attempt, _ := strconv.Atoi(meta["attempt"])
	return app.SessionRecord{
		State:   domain.SessionState(meta["state"]),
		Attempt: attempt,
		Answers: answers,
	}, true, nil
}

func (s *SessionStore) answersKey(userID string) string {
	return "guidely:session:" + userID + ":answers"
}

func (s *SessionStore) metaKey(userID string) string {
	return "guidely:session:" + userID + ":meta"
}
