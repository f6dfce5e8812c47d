package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/domain"
	"guidely-quiz-service/internal/infra/memory"
)

func TestStartAnswerAndLiveScores(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(app.DefaultMinAnswered)

	start, err := service.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if start.State != domain.StateUnanswered || start.Required != 2 || start.Total != 2 {
		t.Fatalf("unexpected initial update %+v", start)
	}

	if _, err := service.Answer(ctx, "u1", "Q1", 2); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	update, err := service.Answer(ctx, "u1", "Q2", -1)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if update.State != domain.StateInProgress || update.Answered != 2 {
		t.Fatalf("unexpected update %+v", update)
	}
	if got := update.Result.Scores[domain.Science]; got != 3 {
		t.Fatalf("expected science 3, got %d", got)
	}
	if got := update.Result.Percentages[domain.Commerce]; got != 17 {
		t.Fatalf("expected commerce 17%%, got %d", got)
	}
	if update.Result.Ranking[0].Category != domain.Science {
		t.Fatalf("expected science to lead, got %+v", update.Result.Ranking)
	}
}

func TestAnswerOverwriteIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(0)
	_, _ = service.Start(ctx, "u1")

	_, _ = service.Answer(ctx, "u1", "Q1", 2)
	update, err := service.Answer(ctx, "u1", "Q1", -2)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if update.Answered != 1 || update.Result.Scores[domain.Science] != -4 {
		t.Fatalf("expected overwrite to replace contribution, got %+v", update)
	}
}

func TestAnswerValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(0)

	if _, err := service.Answer(ctx, "ghost", "Q1", 1); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}

	_, _ = service.Start(ctx, "u1")
	if _, err := service.Answer(ctx, "u1", "Q9", 1); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question error, got %v", err)
	}
	if _, err := service.Answer(ctx, "u1", "Q1", 3); err != domain.ErrInvalidOption {
		t.Fatalf("expected option error, got %v", err)
	}
}

func TestSubmitGatesOnAnsweredCount(t *testing.T) {
	ctx := context.Background()
	service, results := newTestService(app.DefaultMinAnswered)
	_, _ = service.Start(ctx, "u1")
	_, _ = service.Answer(ctx, "u1", "Q1", 2)

	// min(6, 2 questions) = 2 answers needed.
	if _, err := service.Submit(ctx, "u1"); err != domain.ErrNotEnoughAnswers {
		t.Fatalf("expected not enough answers, got %v", err)
	}
	if _, ok, _ := results.LoadSnapshot(ctx, "u1"); ok {
		t.Fatalf("nothing should be persisted before a valid submit")
	}

	_, _ = service.Answer(ctx, "u1", "Q2", -1)
	report, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !report.Quizzed || report.Result.Scores[domain.Science] != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Compare) != 2 || report.Compare[0].Stream != domain.Science || report.Compare[1].Stream != domain.Arts {
		t.Fatalf("expected science then arts in comparison, got %+v", report.Compare)
	}
	if report.Compare[0].Careers.Title == "" {
		t.Fatalf("expected career map attached")
	}
	if len(report.Graph) != 4 || report.Graph[0].Category != domain.Science {
		t.Fatalf("expected graph in declared order, got %+v", report.Graph)
	}

	snap, ok, err := results.LoadSnapshot(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("expected stored snapshot, ok=%v err=%v", ok, err)
	}
	if snap.Scores[domain.Commerce] != -2 || len(snap.Scores) != 4 {
		t.Fatalf("unexpected snapshot %+v", snap.Scores)
	}

	if _, err := service.Answer(ctx, "u1", "Q1", 1); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected already submitted, got %v", err)
	}
	if _, err := service.Submit(ctx, "u1"); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected already submitted on second submit, got %v", err)
	}
}

func TestSubmitKeepsSessionOpenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), questions, failingResults{}, app.Options{MinAnswered: 1})

	_, _ = service.Start(ctx, "u1")
	_, _ = service.Answer(ctx, "u1", "Q1", 1)
	if _, err := service.Submit(ctx, "u1"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := service.Answer(ctx, "u1", "Q2", 1); err != nil {
		t.Fatalf("session must stay answerable after failed submit: %v", err)
	}
}

func TestRetakeClearsAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(1)
	_, _ = service.Start(ctx, "u1")
	_, _ = service.Answer(ctx, "u1", "Q1", 2)
	if _, err := service.Submit(ctx, "u1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	update, err := service.Retake(ctx, "u1")
	if err != nil {
		t.Fatalf("retake failed: %v", err)
	}
	if update.State != domain.StateUnanswered || update.Answered != 0 || update.Attempt != 2 {
		t.Fatalf("unexpected retake update %+v", update)
	}
	for c, p := range update.Result.Percentages {
		if p != 50 {
			t.Fatalf("expected 50%% for %s after retake, got %d", c, p)
		}
	}

	// The earlier submission remains readable until replaced.
	report, err := service.Result(ctx, "u1")
	if err != nil || !report.Quizzed {
		t.Fatalf("expected previous result, got %+v err=%v", report, err)
	}
}

func TestResultWithoutSnapshot(t *testing.T) {
	service, _ := newTestService(0)
	report, err := service.Result(context.Background(), "new-student")
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if report.Quizzed {
		t.Fatalf("expected not-yet-quizzed report, got %+v", report)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(0)

	if _, err := service.Start(ctx, "u1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.Answer(ctx, "u1", "Q1", 1); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	update := <-ch
	if update.Answered != 1 || update.Result.Scores[domain.Science] != 2 {
		t.Fatalf("expected updated science score 2, got %+v", update)
	}
}

func TestSubscribeOpensReleasedSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(1)

	if _, err := service.Start(ctx, "u1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// Another tab leaves before this one subscribes; the blank session goes.
	service.Leave(ctx, "u1")

	ch, cancel, err := service.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe after concurrent leave: %v", err)
	}
	defer cancel()
	if first := <-ch; first.State != domain.StateUnanswered || first.Total != 2 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}
	if _, err := service.Answer(ctx, "u1", "Q1", 1); err != nil {
		t.Fatalf("answer on subscribed session: %v", err)
	}
}

func TestZeroOptionsKeepDefaultGate(t *testing.T) {
	ctx := context.Background()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), questions, memory.NewResultStore(), app.Options{})

	start, _ := service.Start(ctx, "u1")
	if start.Required != 2 {
		t.Fatalf("expected default gate capped at bank size 2, got %d", start.Required)
	}
	if _, err := service.Submit(ctx, "u1"); err != domain.ErrNotEnoughAnswers {
		t.Fatalf("expected zero options to keep the gate, got %v", err)
	}
}

func TestNoSubmissionGate(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(app.NoSubmissionGate)

	start, _ := service.Start(ctx, "u1")
	if start.Required != 0 {
		t.Fatalf("expected no required answers, got %d", start.Required)
	}
	if _, err := service.Submit(ctx, "u1"); err != nil {
		t.Fatalf("expected ungated submit, got %v", err)
	}
}

func TestScoreIsStateless(t *testing.T) {
	service, _ := newTestService(0)
	res, err := service.Score(context.Background(), domain.AnswerSet{"Q1": 2, "Q2": -1})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if res.MaxAbs != 3 || res.Percentages[domain.Science] != 100 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStartWithEmptyBank(t *testing.T) {
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(nil), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), questions, memory.NewResultStore(), app.Options{})
	if _, err := service.Start(context.Background(), "u1"); !errors.Is(err, domain.ErrQuestionsNotFound) {
		t.Fatalf("expected no questions error, got %v", err)
	}
}

func TestSessionClock(t *testing.T) {
	at := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	session := app.NewSessionWithClock("u1", func() time.Time { return at })
	rec := session.Record()
	if rec.State != domain.StateUnanswered || rec.Attempt != 1 {
		t.Fatalf("unexpected fresh record %+v", rec)
	}
	if !session.IsIdle() || !session.IsBlank() {
		t.Fatalf("fresh session must be idle and blank")
	}
}

func TestRestoreSessionPromotesState(t *testing.T) {
	session := app.RestoreSession("u1", app.SessionRecord{Answers: domain.AnswerSet{"Q1": 1}})
	if got := session.Record(); got.State != domain.StateInProgress || got.Attempt != 1 {
		t.Fatalf("unexpected restored record %+v", got)
	}
}

var errStoreDown = errors.New("store down")

type failingResults struct{}

func (failingResults) SaveSnapshot(context.Context, string, domain.Snapshot) error {
	return errStoreDown
}

func (failingResults) LoadSnapshot(context.Context, string) (domain.Snapshot, bool, error) {
	return domain.Snapshot{}, false, errStoreDown
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{ID: "Q1", Text: "I enjoy science projects.", Weights: map[domain.Category]int{domain.Science: 2}},
		{ID: "Q2", Text: "I like analyzing business news.", Weights: map[domain.Category]int{domain.Commerce: 2, domain.Science: 1}},
	}
}

func newTestService(minAnswered int) (*app.QuizService, *memory.ResultStore) {
	sessionStore := memory.NewSessionStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), 5*time.Minute)
	results := memory.NewResultStore()
	return app.NewQuizService(sessionStore, questions, results, app.Options{MinAnswered: minAnswered}), results
}
