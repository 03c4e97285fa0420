package middleware

import (
	"errors"
	"net/http"

	"github.com/boqueria/training-api/internal/response"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-gonic/gin"
)

// HeaderAPIKey carries the shared secret of the chat client.
const HeaderAPIKey = "x-api-key"

// RequireAPIKey rejects requests whose x-api-key header does not match the
// configured shared secret.
func RequireAPIKey(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		if key == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAPIKeyRequired)
			return
		}

		if err := authService.VerifyKey(key); err != nil {
			if errors.Is(err, service.ErrAPIKeyNotConfig) {
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrInvalidAPIKey)
			return
		}

		c.Next()
	}
}
