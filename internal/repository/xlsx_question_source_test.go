package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/boqueria/training-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sheetHeader = []string{
	"category1", "category2", "question_id", "question_type", "content",
	"answer1", "answer2", "answer3", "answer4", "dummy1", "dummy2",
	"auto_dummy", "auto_dummy_exception", "explanation", "conversation_example",
}

func writeWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = v
			}
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	path := filepath.Join(t.TempDir(), "questions.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXQuestionSource_FetchRows(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Beginner": {
			sheetHeader,
			{"Greeting", "Hello", "q1", "text", "Say hello", "Hello", "Hi", "", "", "Bye", "", "on", "", "basic", "A: Hello"},
			{},
			{"Greeting", "Hello", "q2", "text", "Say bye", "Goodbye"},
		},
	})
	src := NewXLSXQuestionSource(path)

	rows, err := src.FetchRows(context.Background(), "Beginner")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, model.QuestionRow{
		Category1:           "Greeting",
		Category2:           "Hello",
		ID:                  "q1",
		Type:                "text",
		Content:             "Say hello",
		Answers:             [4]string{"Hello", "Hi", "", ""},
		Dummies:             [2]string{"Bye", ""},
		AutoDummy:           "ON",
		Explanation:         "basic",
		ConversationExample: "A: Hello",
	}, rows[0])
	assert.Equal(t, "q2", rows[1].ID)
	assert.Equal(t, model.AutoDummyOff, rows[1].AutoDummy)
}

func TestXLSXQuestionSource_HeaderOnly(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{"Beginner": {sheetHeader}})

	rows, err := NewXLSXQuestionSource(path).FetchRows(context.Background(), "Beginner")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXQuestionSource_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{"Beginner": {sheetHeader}})

	_, err := NewXLSXQuestionSource(path).FetchRows(context.Background(), "Expert")
	assert.ErrorIs(t, err, ErrLevelNotFound)
}

func TestXLSXQuestionSource_MissingFile(t *testing.T) {
	src := NewXLSXQuestionSource(filepath.Join(t.TempDir(), "absent.xlsx"))

	_, err := src.FetchRows(context.Background(), "Beginner")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = src.SheetNames()
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestXLSXQuestionSource_SheetNames(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{"Beginner": {sheetHeader}})

	names, err := NewXLSXQuestionSource(path).SheetNames()
	require.NoError(t, err)
	assert.Contains(t, names, "Beginner")
}
