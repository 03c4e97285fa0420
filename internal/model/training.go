package model

// QuestionStatus is the status field of a get_question response.
type QuestionStatus string

const (
	QuestionStatusNext               QuestionStatus = "next"
	QuestionStatusCategoryEndAndNext QuestionStatus = "category_end_and_next"
	QuestionStatusEnd                QuestionStatus = "end"
)

// CategoryPurpose selects which levels get_category_list returns.
type CategoryPurpose string

const (
	PurposeTraining CategoryPurpose = "training"
	PurposeReview   CategoryPurpose = "review"
)

// StartTrainingRequest is the payload for starting or restarting training.
type StartTrainingRequest struct {
	UserName        string `json:"user_name" binding:"required,notblank,max=200"`
	Level           string `json:"level" binding:"omitempty,max=100"`
	StartCategory1  string `json:"start_category1" binding:"omitempty,max=200"`
	StartQuestionID string `json:"start_question_id" binding:"omitempty,max=100"`
}

// StartTrainingResponse reports the level the session was started on.
type StartTrainingResponse struct {
	Status        string `json:"status"`
	LevelStarted  string `json:"level_started"`
	QuestionCount int    `json:"question_count"`
	Message       string `json:"message"`
}

// UserRequest is the payload for endpoints that only need the user.
type UserRequest struct {
	UserName string `json:"user_name" binding:"required,notblank,max=200"`
}

// GetQuestionResponse is the get_question result.
type GetQuestionResponse struct {
	Status       QuestionStatus `json:"status"`
	Question     *Question      `json:"question_data,omitempty"`
	ProgressRate int            `json:"progress_rate"`
	NextLevel    string         `json:"next_level,omitempty"`
}

// SubmitAnswerRequest is the payload for grading an answer.
type SubmitAnswerRequest struct {
	UserName   string `json:"user_name" binding:"required,notblank,max=200"`
	QuestionID string `json:"question_id" binding:"required,notblank,max=100"`
	UserAnswer string `json:"user_answer" binding:"max=2000"`
}

// SubmitAnswerResponse is the submit_answer result.
type SubmitAnswerResponse struct {
	Status         string   `json:"status"`
	IsCorrect      bool     `json:"is_correct"`
	CorrectAnswers []string `json:"correct_answers"`
	Explanation    string   `json:"explanation"`
	ProgressRate   int      `json:"progress_rate"`
}

// GetCategoryListRequest is the payload for listing levels.
type GetCategoryListRequest struct {
	UserName string          `json:"user_name" binding:"required,notblank,max=200"`
	Purpose  CategoryPurpose `json:"purpose" binding:"omitempty,oneof=training review"`
}

// SheetDataResponse is the debug dump of one level's raw rows.
type SheetDataResponse struct {
	SheetName string        `json:"sheet_name"`
	Data      []QuestionRow `json:"data"`
}
