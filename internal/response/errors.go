package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrAPIKeyRequired ErrCode = "API_KEY_REQUIRED"
	ErrInvalidAPIKey  ErrCode = "INVALID_API_KEY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Training ──────────────────────────────────────────────────────
	ErrLevelNotFound     ErrCode = "LEVEL_NOT_FOUND"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS_FOR_LEVEL"
	ErrCategoryNotFound  ErrCode = "CATEGORY_NOT_FOUND"
	ErrQuestionNotFound  ErrCode = "QUESTION_NOT_FOUND"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_SESSION"
	ErrStaleQuestion     ErrCode = "STALE_QUESTION"
	ErrSourceUnavailable ErrCode = "SOURCE_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrAPIKeyRequired:
		return "An API key is required."
	case ErrInvalidAPIKey:
		return "Invalid API key."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Training ──────────────────────────────────────────────────────
	case ErrLevelNotFound:
		return "The requested level does not exist."
	case ErrNoQuestions:
		return "The level has no questions."
	case ErrCategoryNotFound:
		return "The category was not found in this level."
	case ErrQuestionNotFound:
		return "The question was not found in this level."
	case ErrNoActiveSession:
		return "No active training session. Call start_training first."
	case ErrStaleQuestion:
		return "The answer does not belong to the question currently shown."
	case ErrSourceUnavailable:
		return "The question source is currently unavailable."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
