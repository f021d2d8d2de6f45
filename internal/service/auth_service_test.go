package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartellino/internal/config"
	"cartellino/internal/domain"
	"cartellino/internal/service"
)

func jwtConfig(t *testing.T) config.JWTConfig {
	t.Helper()
	hash, err := service.HashSecret("s3cret")
	require.NoError(t, err)
	return config.JWTConfig{
		Secret:            "test-signing-key",
		AccessTokenExpiry: time.Hour,
		Issuer:            "cartellino",
		ClientID:          "payroll",
		ClientSecretHash:  hash,
	}
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	auth := service.NewAuthService(jwtConfig(t))

	tok, err := auth.IssueToken(context.Background(), "payroll", "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := auth.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "payroll", claims.Subject)
	assert.Equal(t, "cartellino", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthService_IssueTokenRejects(t *testing.T) {
	auth := service.NewAuthService(jwtConfig(t))

	_, err := auth.IssueToken(context.Background(), "payroll", "wrong")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = auth.IssueToken(context.Background(), "other", "s3cret")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	unconfigured := service.NewAuthService(config.JWTConfig{Secret: "k"})
	_, err = unconfigured.IssueToken(context.Background(), "", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	cfg := jwtConfig(t)
	auth := service.NewAuthService(cfg)

	// Non-positive TTLs fall back to the configured expiry.
	fallback, err := auth.GenerateToken("cli", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateToken(fallback.AccessToken)
	require.NoError(t, err)

	other := service.NewAuthService(config.JWTConfig{Secret: "another-key", AccessTokenExpiry: time.Hour})
	foreign, err := other.GenerateToken("cli", time.Hour)
	require.NoError(t, err)
	_, err = auth.ValidateToken(foreign.AccessToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "cli",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Audience:  jwt.ClaimStrings{"refresh"},
	})
	signed, err := refresh.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	_, err = auth.ValidateToken(signed)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "cli",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		Audience:  jwt.ClaimStrings{"access"},
	})
	signed, err = stale.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	_, err = auth.ValidateToken(signed)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
