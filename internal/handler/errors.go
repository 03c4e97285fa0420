package handler

import (
	"errors"
	"net/http"

	"github.com/boqueria/training-api/internal/response"
	"github.com/boqueria/training-api/internal/service"
	"github.com/boqueria/training-api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// bindRequest binds the JSON body into dst and writes the 400 response when
// it fails. Undecodable bodies get INVALID_PAYLOAD, rule violations
// VALIDATION_ERROR.
func bindRequest(c *gin.Context, dst any) bool {
	fields := validator.Bind(c, dst)
	if fields == nil {
		return true
	}
	code := response.ErrValidation
	if _, ok := fields[validator.DetailField]; ok {
		code = response.ErrInvalidPayload
	}
	response.FailWithFields(c, http.StatusBadRequest, code, fields)
	return false
}

// failTraining maps a training service error onto the API envelope.
func failTraining(c *gin.Context, log zerolog.Logger, err error) {
	var levelErr *service.LevelError
	var staleErr *service.StaleQuestionError

	switch {
	case errors.As(err, &staleErr):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrStaleQuestion, map[string]string{
			"expected_question_id": staleErr.Expected,
			"question_id":          staleErr.Given,
		})
	case errors.As(err, &levelErr):
		failLevel(c, levelErr)
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrSourceUnavailable):
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Question source unavailable")
		response.Fail(c, http.StatusInternalServerError, response.ErrSourceUnavailable)
	default:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Unhandled training error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func failLevel(c *gin.Context, err *service.LevelError) {
	fields := map[string]string{"level": err.Level}

	var code response.ErrCode
	switch {
	case errors.Is(err, service.ErrNoQuestionsForLevel):
		code = response.ErrNoQuestions
	case errors.Is(err, service.ErrCategoryNotFound):
		code = response.ErrCategoryNotFound
		fields["start_category1"] = err.Item
	case errors.Is(err, service.ErrQuestionNotFound):
		code = response.ErrQuestionNotFound
		fields["question_id"] = err.Item
	default:
		code = response.ErrLevelNotFound
	}

	response.FailWithFields(c, http.StatusNotFound, code, fields)
}
