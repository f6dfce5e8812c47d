// Package content validates question rows coming from authored sources
// (database, YAML files) and converts them into domain questions.
package content

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"guidely-quiz-service/internal/domain"
)

const streamTag = "stream"

// RawQuestion is a question as authored, before stream keys are resolved.
// Weights are bounded to [-10, 10]. A question without weights is valid and
// scores zero everywhere.
type RawQuestion struct {
	ID      string         `json:"id" yaml:"id" validate:"required,max=64"`
	Text    string         `json:"text" yaml:"text" validate:"required"`
	Weights map[string]int `json:"weights" yaml:"weights" validate:"dive,keys,stream,endkeys,min=-10,max=10"`
}

// Validator checks raw questions against the declared stream set.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(streamTag, func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCategory(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

// Convert validates one raw question.
func (v *Validator) Convert(raw RawQuestion) (domain.Question, error) {
	if err := v.validate.Struct(raw); err != nil {
		return domain.Question{}, fmt.Errorf("%w %q: %v", domain.ErrInvalidQuestion, raw.ID, err)
	}
	weights := make(map[domain.Category]int, len(raw.Weights))
	for key, w := range raw.Weights {
		c, err := domain.ParseCategory(key)
		if err != nil {
			return domain.Question{}, fmt.Errorf("%w %q: %v", domain.ErrInvalidQuestion, raw.ID, err)
		}
		weights[c] = w
	}
	return domain.Question{ID: raw.ID, Text: raw.Text, Weights: weights}, nil
}

// ConvertAll keeps the valid questions in order. Invalid rows and repeated
// IDs are logged and dropped.
func (v *Validator) ConvertAll(raws []RawQuestion, logger *slog.Logger) []domain.Question {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(raws))
	out := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		q, err := v.Convert(raw)
		if err != nil {
			logger.Warn("skipping quiz question", "id", raw.ID, "error", err)
			continue
		}
		if _, dup := seen[q.ID]; dup {
			logger.Warn("skipping duplicate quiz question", "id", q.ID)
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// FromDomain turns a question back into its authored form.
func FromDomain(q domain.Question) RawQuestion {
	weights := make(map[string]int, len(q.Weights))
	for c, w := range q.Weights {
		weights[c.String()] = w
	}
	return RawQuestion{ID: q.ID, Text: q.Text, Weights: weights}
}
