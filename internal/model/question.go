package model

// Column positions of a question row in a level sheet.
const (
	ColCategory1 = iota
	ColCategory2
	ColQuestionID
	ColQuestionType
	ColContent
	ColAnswer1
	ColAnswer2
	ColAnswer3
	ColAnswer4
	ColDummy1
	ColDummy2
	ColAutoDummy
	ColAutoDummyException
	ColExplanation
	ColConversationExample

	// RowWidth is the number of fixed columns in a level sheet.
	RowWidth
)

// AutoDummyOff is the default auto-dummy flag for rows that leave it blank.
const AutoDummyOff = "OFF"

// QuestionRow is one raw row of a level sheet, addressed by fixed position.
type QuestionRow struct {
	Category1           string    `json:"category1"`
	Category2           string    `json:"category2"`
	ID                  string    `json:"question_id"`
	Type                string    `json:"question_type"`
	Content             string    `json:"question_content"`
	Answers             [4]string `json:"answers"`
	Dummies             [2]string `json:"dummies"`
	AutoDummy           string    `json:"auto_dummy_generation"`
	AutoDummyException  string    `json:"auto_dummy_exception"`
	Explanation         string    `json:"explanation"`
	ConversationExample string    `json:"conversation_example"`
}

// Cells returns the row in sheet column order.
func (r QuestionRow) Cells() []string {
	cells := make([]string, RowWidth)
	cells[ColCategory1] = r.Category1
	cells[ColCategory2] = r.Category2
	cells[ColQuestionID] = r.ID
	cells[ColQuestionType] = r.Type
	cells[ColContent] = r.Content
	for i, a := range r.Answers {
		cells[ColAnswer1+i] = a
	}
	for i, d := range r.Dummies {
		cells[ColDummy1+i] = d
	}
	cells[ColAutoDummy] = r.AutoDummy
	cells[ColAutoDummyException] = r.AutoDummyException
	cells[ColExplanation] = r.Explanation
	cells[ColConversationExample] = r.ConversationExample
	return cells
}

// Question is the client-facing shape of a question row.
type Question struct {
	Category1           string   `json:"category1"`
	Category2           string   `json:"category2"`
	ID                  string   `json:"question_id"`
	Type                string   `json:"question_type"`
	Content             string   `json:"question_content"`
	CorrectAnswers      []string `json:"correct_answers"`
	DummyAnswers        []string `json:"dummy_answers"`
	Choices             []string `json:"choices"`
	AutoDummy           string   `json:"auto_dummy_generation"`
	AutoDummyException  string   `json:"auto_dummy_exception"`
	Explanation         string   `json:"explanation"`
	ConversationExample string   `json:"conversation_example"`
}

// OrderEntry is one position of a materialized quiz order.
type OrderEntry struct {
	QuestionID string `json:"question_id"`
	RowIndex   int    `json:"row_index"`
	Category1  string `json:"category1"`
}
