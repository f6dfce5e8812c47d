package app

import (
	"context"
	"fmt"
	"log/slog"

	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/domain"
	"guidely-quiz-service/internal/scoring"
)

// DefaultMinAnswered is how many answers a submission needs when the bank is
// at least that large.
const DefaultMinAnswered = 6

// NoSubmissionGate turns the answered-count gate off.
const NoSubmissionGate = -1

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*Session, error)
	Get(userID string) (*Session, bool)
	Save(ctx context.Context, userID string, rec SessionRecord) error
	ReleaseIfIdle(userID string)
}

// QuestionRepository loads the active question bank (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]domain.Question, error)
}

// ResultStore keeps the score snapshot taken at submission. A missing
// snapshot is reported with ok=false, not an error.
type ResultStore interface {
	SaveSnapshot(ctx context.Context, userID string, snap domain.Snapshot) error
	LoadSnapshot(ctx context.Context, userID string) (snap domain.Snapshot, ok bool, err error)
}

// Options tune a QuizService.
type Options struct {
	// MinAnswered is the submission gate. Zero means DefaultMinAnswered and
	// any negative value (NoSubmissionGate) disables it.
	MinAnswered int
	Engine      *scoring.Engine
	Logger      *slog.Logger
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	results     ResultStore
	engine      scoring.Engine
	minAnswered int
	logger      *slog.Logger
}

func NewQuizService(store SessionRepository, questions QuestionRepository, results ResultStore, opts Options) *QuizService {
	engine := scoring.Default()
	if opts.Engine != nil {
		engine = *opts.Engine
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minAnswered := opts.MinAnswered
	switch {
	case minAnswered == 0:
		minAnswered = DefaultMinAnswered
	case minAnswered < 0:
		minAnswered = 0
	}
	return &QuizService{
		sessions:    store,
		questions:   questions,
		results:     results,
		engine:      engine,
		minAnswered: minAnswered,
		logger:      logger,
	}
}

// Engine exposes the scoring engine used by the service.
func (s *QuizService) Engine() scoring.Engine {
	return s.engine
}

// Questions returns the active question bank.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	return s.loadQuestions(ctx)
}

// Start opens (or resumes) a student's quiz session.
func (s *QuizService) Start(ctx context.Context, userID string) (domain.ScoreUpdate, error) {
	p, err := s.pass(ctx)
	if err != nil {
		return domain.ScoreUpdate{}, err
	}
	session, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.ScoreUpdate{}, err
	}
	return session.current(p), nil
}

// Answer records one Likert answer and returns the recomputed scores.
func (s *QuizService) Answer(ctx context.Context, userID, questionID string, value int) (domain.ScoreUpdate, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.ScoreUpdate{}, domain.ErrSessionNotFound
	}
	p, err := s.pass(ctx)
	if err != nil {
		return domain.ScoreUpdate{}, err
	}
	if !hasQuestion(p.questions, questionID) {
		return domain.ScoreUpdate{}, domain.ErrQuestionNotFound
	}
	if !catalog.ValidOption(value) {
		return domain.ScoreUpdate{}, domain.ErrInvalidOption
	}

	return session.answer(p, questionID, value, s.mirror(ctx, userID))
}

// Submit persists the current score vector and returns the student's report.
func (s *QuizService) Submit(ctx context.Context, userID string) (domain.Report, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.Report{}, domain.ErrSessionNotFound
	}
	p, err := s.pass(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	snap, rec, err := session.submit(p, func(snap domain.Snapshot) error {
		if err := s.results.SaveSnapshot(ctx, userID, snap); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	}, s.mirror(ctx, userID))
	if err != nil {
		return domain.Report{}, err
	}
	s.logger.Info("quiz submitted", "user_id", userID, "attempt", rec.Attempt, "answered", len(rec.Answers))
	return s.report(userID, snap), nil
}

// Retake clears the answer set so the student can start over. The previous
// snapshot stays in the result store until the next submission replaces it.
func (s *QuizService) Retake(ctx context.Context, userID string) (domain.ScoreUpdate, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.ScoreUpdate{}, domain.ErrSessionNotFound
	}
	p, err := s.pass(ctx)
	if err != nil {
		return domain.ScoreUpdate{}, err
	}
	return session.retake(p, s.mirror(ctx, userID)), nil
}

// Subscribe opens (or resumes) a student's session and returns a channel of
// score updates. The first value is the current state. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, userID string) (<-chan domain.ScoreUpdate, func(), error) {
	p, err := s.pass(ctx)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe(p)
	return ch, cancel, nil
}

// Leave lets the store drop a session nobody is watching.
func (s *QuizService) Leave(_ context.Context, userID string) {
	s.sessions.ReleaseIfIdle(userID)
}

// Result loads the last submitted snapshot. Students without one get a
// report with Quizzed=false.
func (s *QuizService) Result(ctx context.Context, userID string) (domain.Report, error) {
	snap, ok, err := s.results.LoadSnapshot(ctx, userID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return domain.Report{UserID: userID, Quizzed: false}, nil
	}
	return s.report(userID, snap), nil
}

// Score evaluates an answer set against the active bank without touching any
// session.
func (s *QuizService) Score(ctx context.Context, answers domain.AnswerSet) (domain.Result, error) {
	questions, err := s.loadQuestions(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	return s.engine.Evaluate(questions, answers), nil
}

func (s *QuizService) report(userID string, snap domain.Snapshot) domain.Report {
	result := s.engine.Summarize(snap.Scores)
	return domain.Report{
		UserID:      userID,
		Quizzed:     true,
		SubmittedAt: snap.SubmittedAt,
		Result:      result,
		Compare:     Compare(result, 2),
		Graph:       s.engine.Layout(result, scoring.DefaultRadius),
	}
}

// Compare pairs the n leading streams with their career outcomes.
func Compare(result domain.Result, n int) []domain.Comparison {
	top := scoring.TopN(result.Ranking, n)
	out := make([]domain.Comparison, 0, len(top))
	for _, r := range top {
		cm, _ := catalog.CareerMapFor(r.Category)
		out = append(out, domain.Comparison{
			Stream:  r.Category,
			Label:   r.Category.Label(),
			Percent: result.Percentages[r.Category],
			Careers: cm,
		})
	}
	return out
}

func (s *QuizService) pass(ctx context.Context) (pass, error) {
	questions, err := s.loadQuestions(ctx)
	if err != nil {
		return pass{}, err
	}
	required := s.minAnswered
	if required > len(questions) {
		required = len(questions)
	}
	return pass{engine: s.engine, questions: questions, required: required}, nil
}

func (s *QuizService) loadQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}

// mirror saves each committed record under the session lock; failures are
// logged, the in-process session stays authoritative.
func (s *QuizService) mirror(ctx context.Context, userID string) mirrorFunc {
	return func(rec SessionRecord) {
		if err := s.sessions.Save(ctx, userID, rec); err != nil {
			s.logger.Warn("session mirror failed", "user_id", userID, "error", err)
		}
	}
}

func hasQuestion(questions []domain.Question, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
