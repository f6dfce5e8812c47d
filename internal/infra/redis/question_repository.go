package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"guidely-quiz-service/internal/content"
	"guidely-quiz-service/internal/domain"
)

// QuestionLoader fetches the active question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionsKey holds the cached bank as a JSON array of authored questions.
const QuestionsKey = "guidely:questions:active"

// QuestionRepository caches the question bank in Redis and falls back to a
// loader on cache miss.
type QuestionRepository struct {
	client    *redis.Client
	loader    QuestionLoader
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
	validator *content.Validator
	logger    *slog.Logger
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration, logger *slog.Logger) *QuestionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionRepository{
		client:    client,
		loader:    loader,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		validator: content.NewValidator(),
		logger:    logger,
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(QuestionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx); ok {
			return qs, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		raws := make([]content.RawQuestion, 0, len(questions))
		for _, q := range questions {
			raws = append(raws, content.FromDomain(q))
		}
		data, err := json.Marshal(raws)
		if err == nil {
			if err := r.client.Set(ctx, QuestionsKey, data, r.ttlWithJitter()).Err(); err != nil {
				r.logger.Warn("question cache write failed", "error", err)
			}
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached bank, e.g. after content edits.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, QuestionsKey).Err()
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, QuestionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var raws []content.RawQuestion
	if err := json.Unmarshal(data, &raws); err != nil {
		r.logger.Warn("question cache unreadable", "error", err)
		return nil, false
	}
	qs := r.validator.ConvertAll(raws, r.logger)
	if len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
