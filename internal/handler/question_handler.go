package handler

import (
	"net/http"
	"strings"

	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/response"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QuestionHandler exposes raw sheet data for debugging.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// SheetData godoc
// GET /api/v1/sheet_data?sheet_name=Beginner
func (h *QuestionHandler) SheetData(c *gin.Context) {
	name := strings.TrimSpace(c.Query("sheet_name"))
	if name == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"sheet_name": "sheet_name is a required field",
		})
		return
	}

	rows, err := h.questionService.SheetData(c.Request.Context(), name)
	if err != nil {
		failTraining(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.SheetDataResponse{SheetName: name, Data: rows})
}
