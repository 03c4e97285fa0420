package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Upstream errors.
var (
	ErrUpstreamNotConfigured = errors.New("upstream url not configured")
	ErrUpstreamTimeout       = errors.New("upstream timed out")
	ErrUpstreamUnavailable   = errors.New("upstream unreachable")
	ErrUpstreamInvalidBody   = errors.New("upstream returned a non-JSON body")
)

// UpstreamStatusError is returned when the upstream answers with a non-2xx
// status.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// maxUpstreamBody bounds how much of an upstream reply is read.
const maxUpstreamBody = 4 << 20

// UpstreamResponse is a relayed upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// ProxyService forwards training requests to the backend script.
type ProxyService struct {
	url    string
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewProxyService creates a new ProxyService.
func NewProxyService(url, apiKey string, timeout time.Duration, log zerolog.Logger) *ProxyService {
	return &ProxyService{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "proxy_service").Logger(),
	}
}

// Forward posts body to the upstream and returns its JSON reply.
func (s *ProxyService) Forward(ctx context.Context, body []byte) (*UpstreamResponse, error) {
	if s.url == "" {
		return nil, ErrUpstreamNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstreamUnavailable, err)
	}

	s.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("Upstream replied")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode}
	}
	if !json.Valid(raw) {
		return nil, ErrUpstreamInvalidBody
	}

	return &UpstreamResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
