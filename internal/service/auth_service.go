package service

import (
	"crypto/subtle"
	"errors"

	"github.com/boqueria/training-api/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidAPIKey   = errors.New("invalid api key")
	ErrAPIKeyNotConfig = errors.New("no api key configured")
)

// AuthService checks the shared secret sent by the chat client.
type AuthService struct {
	key  []byte
	hash []byte
	cost int
}

// NewAuthService creates a new AuthService. A configured bcrypt hash takes
// precedence over the plain key.
func NewAuthService(cfg *config.Config) *AuthService {
	s := &AuthService{cost: cfg.BcryptCost}
	if cfg.InternalAPIKeyHash != "" {
		s.hash = []byte(cfg.InternalAPIKeyHash)
	} else if cfg.InternalAPIKey != "" {
		s.key = []byte(cfg.InternalAPIKey)
	}
	return s
}

// VerifyKey returns nil when key matches the configured secret.
// With nothing configured every key is rejected.
func (s *AuthService) VerifyKey(key string) error {
	if key == "" {
		return ErrInvalidAPIKey
	}
	switch {
	case s.hash != nil:
		if err := bcrypt.CompareHashAndPassword(s.hash, []byte(key)); err != nil {
			return ErrInvalidAPIKey
		}
		return nil
	case s.key != nil:
		if subtle.ConstantTimeCompare(s.key, []byte(key)) != 1 {
			return ErrInvalidAPIKey
		}
		return nil
	default:
		return ErrAPIKeyNotConfig
	}
}

// HashKey hashes an API key with the configured bcrypt cost.
// Default cost is 6 for high-concurrency performance. Adjustable via BCRYPT_COST env.
func (s *AuthService) HashKey(key string) (string, error) {
	cost := s.cost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	return string(hash), err
}
