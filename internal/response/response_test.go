package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvelopeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"level": "Beginner"}) })
	r.GET("/stale", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrStaleQuestion, map[string]string{"question_id": "q2"})
	})
	return r
}

func serve(t *testing.T, r *gin.Engine, path, requestID string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEnvelopeRouter()

	tests := []struct {
		name  string
		given string
		keep  bool
	}{
		{"generated when missing", "", false},
		{"caller id kept", "chat-42.turn_7", true},
		{"unsafe characters replaced", "abc\" injected=1", false},
		{"overlong replaced", strings.Repeat("a", maxRequestIDLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(t, r, "/ok", tt.given)

			id := w.Header().Get(HeaderRequestID)
			require.NotEmpty(t, id)
			assert.Equal(t, id, env.Metadata.RequestID)
			if tt.keep {
				assert.Equal(t, tt.given, id)
			} else {
				assert.NotEqual(t, tt.given, id)
			}
		})
	}
}

func TestEnvelope(t *testing.T) {
	r := newEnvelopeRouter()

	w, env := serve(t, r, "/ok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.Error)
	assert.Equal(t, map[string]any{"level": "Beginner"}, env.Data)
	assert.NotEmpty(t, env.Metadata.Timestamp)

	w, env = serve(t, r, "/stale", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrStaleQuestion, env.Error.Code)
	assert.Equal(t, GetMessage(ErrStaleQuestion), env.Error.Message)
	assert.Equal(t, "q2", env.Error.Fields["question_id"])
}

func TestMetadataOutsideMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bare", func(c *gin.Context) { Fail(c, http.StatusTooManyRequests, ErrRateLimitExceeded) })

	w, env := serve(t, r, "/bare", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, env.Metadata.RequestID)
	assert.Empty(t, w.Header().Get(HeaderRequestID))
}
