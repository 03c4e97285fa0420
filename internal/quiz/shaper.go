// Package quiz holds the stateless parts of a training session: shaping raw
// sheet rows into questions, building the presentation order of a level and
// grading free-text answers.
package quiz

import (
	"math/rand"
	"strings"

	"github.com/boqueria/training-api/internal/model"
	"github.com/samber/lo"
)

// Shuffler permutes n elements through swap, with the contract of
// rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// RandomShuffle is the default, non-reproducible Shuffler.
func RandomShuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// RowFromCells maps the fixed column positions of a sheet row onto a
// QuestionRow. Missing cells become empty strings and a blank auto-dummy flag
// becomes "OFF".
func RowFromCells(cells []string) model.QuestionRow {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	row := model.QuestionRow{
		Category1:           cell(model.ColCategory1),
		Category2:           cell(model.ColCategory2),
		ID:                  cell(model.ColQuestionID),
		Type:                cell(model.ColQuestionType),
		Content:             cell(model.ColContent),
		AutoDummy:           normalizeFlag(cell(model.ColAutoDummy)),
		AutoDummyException:  cell(model.ColAutoDummyException),
		Explanation:         cell(model.ColExplanation),
		ConversationExample: cell(model.ColConversationExample),
	}
	for i := range row.Answers {
		row.Answers[i] = cell(model.ColAnswer1 + i)
	}
	for i := range row.Dummies {
		row.Dummies[i] = cell(model.ColDummy1 + i)
	}
	return row
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Shape converts a row into a Question with a freshly shuffled choice list.
func Shape(row model.QuestionRow) model.Question {
	return ShapeWith(row, RandomShuffle)
}

// ShapeWith is Shape with an explicit Shuffler for the choice order.
func ShapeWith(row model.QuestionRow, shuffle Shuffler) model.Question {
	correct := nonEmpty(row.Answers[:])
	dummies := nonEmpty(row.Dummies[:])

	choices := lo.Uniq(append(append([]string{}, correct...), dummies...))
	shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })

	return model.Question{
		Category1:           row.Category1,
		Category2:           row.Category2,
		ID:                  row.ID,
		Type:                row.Type,
		Content:             row.Content,
		CorrectAnswers:      correct,
		DummyAnswers:        dummies,
		Choices:             choices,
		AutoDummy:           normalizeFlag(row.AutoDummy),
		AutoDummyException:  row.AutoDummyException,
		Explanation:         row.Explanation,
		ConversationExample: row.ConversationExample,
	}
}

func normalizeFlag(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return model.AutoDummyOff
	}
	return v
}

// nonEmpty trims values and drops blanks, preserving order. Never returns nil
// so the JSON shape is always a list.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
