package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boqueria/training-api/internal/middleware"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxProxyBody bounds the request body accepted by the proxy.
const maxProxyBody = 1 << 20

// proxyError is the error body of the forwarding proxy.
type proxyError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProxyHandler authenticates the chat client and forwards its request to the
// upstream script unchanged.
type ProxyHandler struct {
	authService  *service.AuthService
	proxyService *service.ProxyService
	log          zerolog.Logger
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(authService *service.AuthService, proxyService *service.ProxyService, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		authService:  authService,
		proxyService: proxyService,
		log:          log.With().Str("component", "proxy_handler").Logger(),
	}
}

func proxyFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, proxyError{Status: "error", Message: message})
}

// Forward godoc
// POST /quiz-api
func (h *ProxyHandler) Forward(c *gin.Context) {
	if err := h.authService.VerifyKey(c.GetHeader(middleware.HeaderAPIKey)); err != nil {
		proxyFail(c, http.StatusUnauthorized, "Authentication failed. Invalid or missing x-api-key.")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProxyBody+1))
	if err != nil {
		proxyFail(c, http.StatusBadRequest, "Could not read request body.")
		return
	}
	if len(body) > maxProxyBody {
		proxyFail(c, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	if !json.Valid(body) {
		proxyFail(c, http.StatusBadRequest, "Request body must be valid JSON.")
		return
	}

	resp, err := h.proxyService.Forward(c.Request.Context(), body)
	if err != nil {
		h.failUpstream(c, err)
		return
	}

	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}

func (h *ProxyHandler) failUpstream(c *gin.Context, err error) {
	var statusErr *service.UpstreamStatusError

	switch {
	case errors.Is(err, service.ErrUpstreamTimeout):
		h.log.Warn().Msg("Upstream timed out")
		proxyFail(c, http.StatusGatewayTimeout, "Timeout connecting to the backend script.")
	case errors.As(err, &statusErr):
		h.log.Warn().Int("status", statusErr.StatusCode).Msg("Upstream returned an error status")
		proxyFail(c, statusErr.StatusCode, "The backend script returned an error.")
	case errors.Is(err, service.ErrUpstreamInvalidBody):
		h.log.Warn().Msg("Upstream returned a non-JSON body")
		proxyFail(c, http.StatusBadGateway, "The backend script returned an invalid response.")
	case errors.Is(err, service.ErrUpstreamNotConfigured):
		h.log.Error().Msg("GAS_WEB_APP_URL is not configured")
		proxyFail(c, http.StatusInternalServerError, "The proxy is not configured.")
	default:
		h.log.Error().Err(err).Msg("Upstream request failed")
		proxyFail(c, http.StatusBadGateway, "Failed to connect to the backend script.")
	}
}
