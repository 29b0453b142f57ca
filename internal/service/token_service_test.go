package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/service"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Enabled:     true,
		Secret:      "test-secret-key-for-unit-tests",
		Issuer:      "vidalaboral-test",
		TokenExpiry: time.Hour,
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := service.NewTokenService(testAuthConfig())

	token, expiresAt, err := svc.Issue("ops@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "vidalaboral-test", claims.Issuer)
}

func TestTokenService_EmptySubject(t *testing.T) {
	_, _, err := service.NewTokenService(testAuthConfig()).Issue("")

	assert.Error(t, err)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := service.NewTokenService(testAuthConfig()).Issue("ops")
	require.NoError(t, err)

	other := testAuthConfig()
	other.Secret = "another-secret"
	_, err = service.NewTokenService(other).Validate(token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	token, _, err := service.NewTokenService(testAuthConfig()).Issue("ops")
	require.NoError(t, err)

	other := testAuthConfig()
	other.Issuer = "someone-else"
	_, err = service.NewTokenService(other).Validate(token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Expired(t *testing.T) {
	cfg := testAuthConfig()
	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{"api"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = service.NewTokenService(cfg).Validate(token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_WrongAudience(t *testing.T) {
	cfg := testAuthConfig()
	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{"refresh"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = service.NewTokenService(cfg).Validate(token)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
