package repository

import (
	"context"
	"errors"

	"github.com/boqueria/training-api/internal/model"
)

// Question source errors.
var (
	ErrSourceUnavailable = errors.New("question source unavailable")
	ErrLevelNotFound     = errors.New("level not found in question source")
)

// QuestionSource fetches the raw rows of one level, header excluded.
// A single call returns a consistent snapshot of the level.
type QuestionSource interface {
	FetchRows(ctx context.Context, level string) ([]model.QuestionRow, error)
}

// CacheInvalidator is implemented by sources that cache rows per level.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, level string) error
}
