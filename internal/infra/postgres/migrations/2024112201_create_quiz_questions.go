package migrations

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/uptrace/bun"
	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/content"
)

//go:embed 2024112201_create_quiz_questions.sql
var createQuizQuestionsSQL string

type seedQuestion struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	ID        string          `bun:"id,pk"`
	Text      string          `bun:"text"`
	WeightMap json.RawMessage `bun:"weight_map,type:jsonb"`
	Active    bool            `bun:"active"`
	Position  int             `bun:"position"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createQuizQuestionsSQL); err != nil {
				return err
			}
			rows, err := defaultBank()
			if err != nil {
				return err
			}
			_, err = db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS quiz_questions`)
			return err
		},
	)
}

func defaultBank() ([]seedQuestion, error) {
	questions := catalog.Questions()
	rows := make([]seedQuestion, 0, len(questions))
	for i, q := range questions {
		weights, err := json.Marshal(content.FromDomain(q).Weights)
		if err != nil {
			return nil, err
		}
		rows = append(rows, seedQuestion{
			ID:        q.ID,
			Text:      q.Text,
			WeightMap: weights,
			Active:    true,
			Position:  i + 1,
		})
	}
	return rows, nil
}
