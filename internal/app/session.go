package app

import (
	"sync"
	"time"

	"guidely-quiz-service/internal/domain"
	"guidely-quiz-service/internal/scoring"
)

// SessionRecord is the persistable part of a session.
type SessionRecord struct {
	State   domain.SessionState
	Attempt int
	Answers domain.AnswerSet
}

// Session is one student's quiz attempt and its live subscribers.
type Session struct {
	userID      string
	now         func() time.Time
	mu          sync.RWMutex
	state       domain.SessionState
	attempt     int
	answers     domain.AnswerSet
	lastActive  time.Time
	subscribers map[chan domain.ScoreUpdate]struct{}
}

// mirrorFunc receives every committed record while the session lock is held,
// so records reach the mirror in the order they were made.
type mirrorFunc func(SessionRecord)

// pass is everything a session needs to score itself.
type pass struct {
	engine    scoring.Engine
	questions []domain.Question
	required  int
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(userID string) *Session {
	return newSessionWithClock(userID, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(userID string, now func() time.Time) *Session {
	return newSessionWithClock(userID, now)
}

// RestoreSession rebuilds a session from a stored record.
func RestoreSession(userID string, rec SessionRecord) *Session {
	s := newSessionWithClock(userID, time.Now)
	if rec.State != "" {
		s.state = rec.State
	}
	if rec.Attempt > 0 {
		s.attempt = rec.Attempt
	}
	if rec.Answers != nil {
		s.answers = rec.Answers.Clone()
	}
	if s.state == domain.StateUnanswered && len(s.answers) > 0 {
		s.state = domain.StateInProgress
	}
	return s
}

func newSessionWithClock(userID string, now func() time.Time) *Session {
	return &Session{
		userID:      userID,
		now:         now,
		state:       domain.StateUnanswered,
		attempt:     1,
		answers:     make(domain.AnswerSet),
		lastActive:  now(),
		subscribers: make(map[chan domain.ScoreUpdate]struct{}),
	}
}

// Record returns a copy of the persistable state.
func (s *Session) Record() SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordLocked()
}

func (s *Session) recordLocked() SessionRecord {
	return SessionRecord{State: s.state, Attempt: s.attempt, Answers: s.answers.Clone()}
}

func (s *Session) current(p pass) domain.ScoreUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(p)
}

// answer overwrites the value for one question; the caller has validated both.
func (s *Session) answer(p pass, questionID string, value int, mirror mirrorFunc) (domain.ScoreUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateSubmitted {
		return domain.ScoreUpdate{}, domain.ErrAlreadySubmitted
	}
	s.answers[questionID] = value
	s.state = domain.StateInProgress
	s.mirrorLocked(mirror)
	return s.broadcastLocked(p), nil
}

// submit checks the answered count, hands the snapshot to persist and only
// then marks the session submitted.
func (s *Session) submit(p pass, persist func(domain.Snapshot) error, mirror mirrorFunc) (domain.Snapshot, SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateSubmitted {
		return domain.Snapshot{}, SessionRecord{}, domain.ErrAlreadySubmitted
	}
	if answeredCount(p.questions, s.answers) < p.required {
		return domain.Snapshot{}, SessionRecord{}, domain.ErrNotEnoughAnswers
	}

	snap := domain.Snapshot{
		Scores:      p.engine.ComputeScores(p.questions, s.answers),
		SubmittedAt: s.now(),
	}
	if err := persist(snap); err != nil {
		return domain.Snapshot{}, SessionRecord{}, err
	}
	s.state = domain.StateSubmitted
	s.mirrorLocked(mirror)
	s.broadcastLocked(p)
	return snap, s.recordLocked(), nil
}

// retake clears the answer set and starts a new attempt.
func (s *Session) retake(p pass, mirror mirrorFunc) domain.ScoreUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers = make(domain.AnswerSet)
	s.state = domain.StateUnanswered
	s.attempt++
	s.mirrorLocked(mirror)
	return s.broadcastLocked(p)
}

func (s *Session) mirrorLocked(mirror mirrorFunc) {
	s.lastActive = s.now()
	if mirror != nil {
		mirror(s.recordLocked())
	}
}

// IsIdle reports whether nobody is subscribed to the session.
func (s *Session) IsIdle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

// IsBlank reports whether the session holds no answers.
func (s *Session) IsBlank() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers) == 0 && s.state != domain.StateSubmitted
}

// IsSubmitted reports whether the current attempt has been submitted.
func (s *Session) IsSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == domain.StateSubmitted
}

// LastActive is the time of the last answer, submission, retake or
// subscription change.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) subscribe(p pass) (<-chan domain.ScoreUpdate, func()) {
	ch := make(chan domain.ScoreUpdate, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.lastActive = s.now()
	// The current state is always the first value a subscriber sees.
	ch <- s.snapshotLocked(p)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
			s.lastActive = s.now()
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(p pass) domain.ScoreUpdate {
	update := s.snapshotLocked(p)
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest queued update so a slow reader never blocks writers.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
	return update
}

func (s *Session) snapshotLocked(p pass) domain.ScoreUpdate {
	return domain.ScoreUpdate{
		UserID:    s.userID,
		State:     s.state,
		Attempt:   s.attempt,
		Answered:  answeredCount(p.questions, s.answers),
		Required:  p.required,
		Total:     len(p.questions),
		Result:    p.engine.Evaluate(p.questions, s.answers),
		UpdatedAt: s.now(),
	}
}

// answeredCount ignores answers to questions no longer in the bank.
func answeredCount(questions []domain.Question, answers domain.AnswerSet) int {
	n := 0
	for _, q := range questions {
		if _, ok := answers[q.ID]; ok {
			n++
		}
	}
	return n
}
