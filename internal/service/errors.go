package service

import (
	"errors"
	"fmt"

	"github.com/boqueria/training-api/internal/repository"
)

// Domain Errors
var (
	ErrSourceUnavailable   = repository.ErrSourceUnavailable
	ErrLevelNotFound       = errors.New("level not found")
	ErrNoQuestionsForLevel = errors.New("level has no questions")
	ErrCategoryNotFound    = errors.New("category not found in level")
	ErrQuestionNotFound    = errors.New("question not found in level")
	ErrNoActiveSession     = errors.New("no active training session, call start_training first")
	ErrStaleQuestion       = errors.New("question is not the one currently shown")
)

// LevelError names the level (and the missing item, if any) behind a
// not-found error.
type LevelError struct {
	Err   error
	Level string
	Item  string
}

func (e *LevelError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("%v: level %q, %q", e.Err, e.Level, e.Item)
	}
	return fmt.Sprintf("%v: level %q", e.Err, e.Level)
}

func (e *LevelError) Unwrap() error { return e.Err }

// StaleQuestionError is returned when an answer addresses a question other
// than the one at the session's current position. Expected is empty when no
// question is currently shown.
type StaleQuestionError struct {
	Expected string
	Given    string
}

func (e *StaleQuestionError) Error() string {
	return fmt.Sprintf("%v: expected %q, got %q", ErrStaleQuestion, e.Expected, e.Given)
}

func (e *StaleQuestionError) Unwrap() error { return ErrStaleQuestion }

// sourceError maps a question source failure onto the domain errors.
func sourceError(level string, err error) error {
	switch {
	case errors.Is(err, repository.ErrLevelNotFound):
		return &LevelError{Err: ErrLevelNotFound, Level: level}
	case errors.Is(err, ErrSourceUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
}
