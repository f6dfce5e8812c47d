package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a student acts before starting the quiz.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionsNotFound indicates no active question bank could be loaded.
	ErrQuestionsNotFound = errors.New("no active quiz questions")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidOption indicates a value outside the Likert scale.
	ErrInvalidOption = errors.New("answer value not on the scale")
	// ErrUnknownCategory is returned for stream keys outside the declared set.
	ErrUnknownCategory = errors.New("unknown stream category")
	// ErrAlreadySubmitted is returned when answering after submission.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrNotEnoughAnswers is returned when submitting below the required count.
	ErrNotEnoughAnswers = errors.New("not enough questions answered")
	// ErrInvalidQuestion marks content rejected at the load boundary.
	ErrInvalidQuestion = errors.New("invalid quiz question")
)
