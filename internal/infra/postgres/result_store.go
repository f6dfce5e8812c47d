package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"guidely-quiz-service/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	UserID      string             `bun:"user_id,pk"`
	Scores      domain.ScoreVector `bun:"scores,type:jsonb"`
	SubmittedAt time.Time          `bun:"submitted_at"`
}

// ResultStore keeps one snapshot row per student in quiz_results.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveSnapshot(ctx context.Context, userID string, snap domain.Snapshot) error {
	row := &resultRow{UserID: userID, Scores: snap.Scores, SubmittedAt: snap.SubmittedAt.UTC()}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("scores = EXCLUDED.scores").
		Set("submitted_at = EXCLUDED.submitted_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *ResultStore) LoadSnapshot(ctx context.Context, userID string) (domain.Snapshot, bool, error) {
	row := new(resultRow)
	err := s.db.NewSelect().Model(row).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("select result: %w", err)
	}
	scores := make(domain.ScoreVector, len(domain.Categories))
	for _, c := range domain.Categories {
		scores[c] = row.Scores[c]
	}
	return domain.Snapshot{Scores: scores, SubmittedAt: row.SubmittedAt}, true, nil
}
