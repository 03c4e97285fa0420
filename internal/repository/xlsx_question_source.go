package repository

import (
	"context"
	"fmt"

	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/quiz"
	"github.com/xuri/excelize/v2"
)

// XLSXQuestionSource reads levels from the worksheets of a local workbook.
// Each level is one sheet named after the level id.
type XLSXQuestionSource struct {
	path string
}

// NewXLSXQuestionSource creates a new XLSXQuestionSource.
func NewXLSXQuestionSource(path string) *XLSXQuestionSource {
	return &XLSXQuestionSource{path: path}
}

// FetchRows opens the workbook and returns every non-blank row of the sheet
// named level, skipping the header row.
func (s *XLSXQuestionSource) FetchRows(ctx context.Context, level string) ([]model.QuestionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return readLevelSheet(f, level)
}

// SheetNames lists the worksheets of the workbook in tab order.
func (s *XLSXQuestionSource) SheetNames() ([]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func readLevelSheet(f *excelize.File, level string) ([]model.QuestionRow, error) {
	idx, err := f.GetSheetIndex(level)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheet %q", ErrLevelNotFound, level)
	}

	cells, err := f.GetRows(level)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrSourceUnavailable, level, err)
	}

	return rowsFromCells(cells), nil
}

// rowsFromCells drops the header and blank lines and maps the rest by
// position.
func rowsFromCells(cells [][]string) []model.QuestionRow {
	if len(cells) <= 1 {
		return []model.QuestionRow{}
	}
	rows := make([]model.QuestionRow, 0, len(cells)-1)
	for _, c := range cells[1:] {
		if quiz.IsBlankRow(c) {
			continue
		}
		rows = append(rows, quiz.RowFromCells(c))
	}
	return rows
}
