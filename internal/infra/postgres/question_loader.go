package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"guidely-quiz-service/internal/content"
	"guidely-quiz-service/internal/domain"
)

// QuestionLoader loads the active questions and their weight_map JSONB from Postgres.
type QuestionLoader struct {
	pool      *pgxpool.Pool
	validator *content.Validator
	logger    *slog.Logger
}

func NewQuestionLoader(pool *pgxpool.Pool, logger *slog.Logger) *QuestionLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionLoader{pool: pool, validator: content.NewValidator(), logger: logger}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, text, weight_map FROM quiz_questions WHERE active ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var raws []content.RawQuestion
	for rows.Next() {
		var (
			raw     content.RawQuestion
			weights []byte
		)
		if err := rows.Scan(&raw.ID, &raw.Text, &weights); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(weights, &raw.Weights); err != nil {
			l.logger.Warn("skipping quiz question", "id", raw.ID, "error", err)
			continue
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	questions := l.validator.ConvertAll(raws, l.logger)
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}
