package service

import (
	"testing"

	"github.com/boqueria/training-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyKey_PlainKey(t *testing.T) {
	svc := NewAuthService(&config.Config{InternalAPIKey: "s3cret"})

	assert.NoError(t, svc.VerifyKey("s3cret"))
	assert.ErrorIs(t, svc.VerifyKey("wrong"), ErrInvalidAPIKey)
	assert.ErrorIs(t, svc.VerifyKey(""), ErrInvalidAPIKey)
}

func TestVerifyKey_HashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-key"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(&config.Config{
		InternalAPIKey:     "plain-key",
		InternalAPIKeyHash: string(hash),
	})

	assert.NoError(t, svc.VerifyKey("hashed-key"))
	assert.ErrorIs(t, svc.VerifyKey("plain-key"), ErrInvalidAPIKey)
}

func TestVerifyKey_NothingConfigured(t *testing.T) {
	svc := NewAuthService(&config.Config{})

	assert.ErrorIs(t, svc.VerifyKey("anything"), ErrAPIKeyNotConfig)
}

func TestHashKey_RoundTrip(t *testing.T) {
	svc := NewAuthService(&config.Config{BcryptCost: bcrypt.MinCost})

	hash, err := svc.HashKey("rotate-me")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	verifier := NewAuthService(&config.Config{InternalAPIKeyHash: hash})
	assert.NoError(t, verifier.VerifyKey("rotate-me"))
}
