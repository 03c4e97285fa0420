package handler

import (
	"fmt"
	"net/http"

	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/response"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TrainingHandler serves the chat client's training actions.
type TrainingHandler struct {
	trainingService *service.TrainingService
	log             zerolog.Logger
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(trainingService *service.TrainingService, log zerolog.Logger) *TrainingHandler {
	return &TrainingHandler{
		trainingService: trainingService,
		log:             log.With().Str("component", "training_handler").Logger(),
	}
}

// StartTraining godoc
// POST /api/v1/start_training
func (h *TrainingHandler) StartTraining(c *gin.Context) {
	var req model.StartTrainingRequest
	if !bindRequest(c, &req) {
		return
	}

	res, err := h.trainingService.Start(c.Request.Context(), service.StartOptions{
		UserName:        req.UserName,
		Level:           req.Level,
		StartCategory1:  req.StartCategory1,
		StartQuestionID: req.StartQuestionID,
	})
	if err != nil {
		failTraining(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.StartTrainingResponse{
		Status:        "success",
		LevelStarted:  res.Level,
		QuestionCount: res.QuestionCount,
		Message:       fmt.Sprintf("Training started on level %s.", res.Level),
	})
}

// GetQuestion godoc
// POST /api/v1/get_question
// Advances the session and returns the next question, or reports a level
// change or the end of training.
func (h *TrainingHandler) GetQuestion(c *gin.Context) {
	var req model.UserRequest
	if !bindRequest(c, &req) {
		return
	}

	res, err := h.trainingService.Next(c.Request.Context(), req.UserName)
	if err != nil {
		failTraining(c, h.log, err)
		return
	}

	var out model.GetQuestionResponse
	switch r := res.(type) {
	case service.NextQuestion:
		q := r.Question
		out = model.GetQuestionResponse{Status: model.QuestionStatusNext, Question: &q, ProgressRate: r.ProgressRate}
	case service.LevelAdvance:
		out = model.GetQuestionResponse{Status: model.QuestionStatusCategoryEndAndNext, ProgressRate: r.ProgressRate, NextLevel: r.NextLevel}
	case service.AllDone:
		out = model.GetQuestionResponse{Status: model.QuestionStatusEnd, ProgressRate: r.ProgressRate}
	default:
		h.log.Error().Str("type", fmt.Sprintf("%T", res)).Msg("Unknown next result")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// SubmitAnswer godoc
// POST /api/v1/submit_answer
func (h *TrainingHandler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if !bindRequest(c, &req) {
		return
	}

	res, err := h.trainingService.Answer(c.Request.Context(), req.UserName, req.QuestionID, req.UserAnswer)
	if err != nil {
		failTraining(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.SubmitAnswerResponse{
		Status:         "success",
		IsCorrect:      res.IsCorrect,
		CorrectAnswers: res.CorrectAnswers,
		Explanation:    res.Explanation,
		ProgressRate:   res.ProgressRate,
	})
}

// GetCategoryList godoc
// POST /api/v1/get_category_list
func (h *TrainingHandler) GetCategoryList(c *gin.Context) {
	var req model.GetCategoryListRequest
	if !bindRequest(c, &req) {
		return
	}
	if req.Purpose == "" {
		req.Purpose = model.PurposeTraining
	}

	levels, err := h.trainingService.Categories(c.Request.Context(), req.UserName, req.Purpose)
	if err != nil {
		failTraining(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"purpose":    req.Purpose,
		"categories": levels,
	})
}

// ResetTraining godoc
// POST /api/v1/reset_training
// Always succeeds for a well-formed request, whether or not a session existed.
func (h *TrainingHandler) ResetTraining(c *gin.Context) {
	var req model.UserRequest
	if !bindRequest(c, &req) {
		return
	}

	if _, err := h.trainingService.Reset(c.Request.Context(), req.UserName); err != nil {
		failTraining(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  "success",
		"message": "Training progress has been reset.",
	})
}
