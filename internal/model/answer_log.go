package model

import "time"

// AnswerLog records one graded submit_answer call.
type AnswerLog struct {
	// ID makes the insert idempotent when a batch is retried.
	ID         string    `json:"id"`
	UserName   string    `json:"user_name"`
	Level      string    `json:"level"`
	QuestionID string    `json:"question_id"`
	UserAnswer string    `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}
