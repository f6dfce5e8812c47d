package memory

import (
	"context"
	"sync"

	"guidely-quiz-service/internal/domain"
)

// ResultStore keeps submitted snapshots in process.
type ResultStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

func NewResultStore() *ResultStore {
	return &ResultStore{snapshots: make(map[string]domain.Snapshot)}
}

func (s *ResultStore) SaveSnapshot(_ context.Context, userID string, snap domain.Snapshot) error {
	scores := make(domain.ScoreVector, len(snap.Scores))
	for c, v := range snap.Scores {
		scores[c] = v
	}
	s.mu.Lock()
	s.snapshots[userID] = domain.Snapshot{Scores: scores, SubmittedAt: snap.SubmittedAt}
	s.mu.Unlock()
	return nil
}

func (s *ResultStore) LoadSnapshot(_ context.Context, userID string) (domain.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[userID]
	return snap, ok, nil
}
