package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newProxyRouter(upstreamURL string, timeout time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zerolog.New(io.Discard)
	auth := service.NewAuthService(&config.Config{InternalAPIKey: "client-key"})
	proxy := service.NewProxyService(upstreamURL, "gas-key", timeout, log)

	r := gin.New()
	r.POST("/quiz-api", NewProxyHandler(auth, proxy, log).Forward)
	return r
}

func callProxy(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/quiz-api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProxyHandler_Forward(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "gas-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))
	defer upstream.Close()
	r := newProxyRouter(upstream.URL, time.Second)

	w := callProxy(r, "client-key", `{"action":"reset_training","user_name":"u1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"echo":{"action":"reset_training","user_name":"u1"}}`, w.Body.String())
}

func TestProxyHandler_Unauthorized(t *testing.T) {
	r := newProxyRouter("http://127.0.0.1:1", time.Second)

	for _, key := range []string{"", "wrong"} {
		w := callProxy(r, key, `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"error"`)
	}
}

func TestProxyHandler_UpstreamFailures(t *testing.T) {
	slow := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
		case "/html":
			_, _ = w.Write([]byte("<html></html>"))
		case "/slow":
			select {
			case <-slow:
			case <-r.Context().Done():
			}
		}
	}))
	defer upstream.Close()
	defer close(slow)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"non-2xx relayed", upstream.URL + "/teapot", http.StatusTeapot},
		{"non-json body", upstream.URL + "/html", http.StatusBadGateway},
		{"timeout", upstream.URL + "/slow", http.StatusGatewayTimeout},
		{"unreachable", deadURL, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProxyRouter(tt.url, 100*time.Millisecond)

			w := callProxy(r, "client-key", `{}`)

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"error"`)
		})
	}
}

func TestProxyHandler_InvalidRequestBody(t *testing.T) {
	r := newProxyRouter("http://127.0.0.1:1", time.Second)

	w := callProxy(r, "client-key", `not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
