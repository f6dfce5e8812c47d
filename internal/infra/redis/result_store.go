package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"guidely-quiz-service/internal/domain"
)

// ResultStore writes each student's score blob under one well-known key:
//
//	SET guidely:quiz:scores:{userID}    {"science":3,"commerce":-2,...}
//	SET guidely:quiz:scores:{userID}:at {RFC3339 submission time}
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultStore keeps snapshots for ttl; zero keeps them forever.
func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) SaveSnapshot(ctx context.Context, userID string, snap domain.Snapshot) error {
	blob, err := domain.MarshalScores(snap.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ScoresKey(userID), blob, s.ttl)
	pipe.Set(ctx, ScoresKey(userID)+":at", snap.SubmittedAt.UTC().Format(time.RFC3339Nano), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store scores: %w", err)
	}
	return nil
}

func (s *ResultStore) LoadSnapshot(ctx context.Context, userID string) (domain.Snapshot, bool, error) {
	blob, err := s.client.Get(ctx, ScoresKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	scores, err := domain.UnmarshalScores(blob)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode scores: %w", err)
	}

	snap := domain.Snapshot{Scores: scores}
	if at, err := s.client.Get(ctx, ScoresKey(userID)+":at").Result(); err == nil {
		snap.SubmittedAt, _ = time.Parse(time.RFC3339Nano, at)
	}
	return snap, true, nil
}

// ScoresKey is where a student's score blob lives.
func ScoresKey(userID string) string {
	return "guidely:quiz:scores:" + userID
}
