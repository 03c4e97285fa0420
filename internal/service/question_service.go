package service

import (
	"context"

	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/repository"
)

// QuestionService exposes raw question data for debugging a sheet.
type QuestionService struct {
	source repository.QuestionSource
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(source repository.QuestionSource) *QuestionService {
	return &QuestionService{source: source}
}

// SheetData returns the raw rows of one level exactly as the source reports
// them, header excluded.
func (s *QuestionService) SheetData(ctx context.Context, level string) ([]model.QuestionRow, error) {
	rows, err := s.source.FetchRows(ctx, level)
	if err != nil {
		return nil, sourceError(level, err)
	}
	if rows == nil {
		rows = []model.QuestionRow{}
	}
	return rows, nil
}
