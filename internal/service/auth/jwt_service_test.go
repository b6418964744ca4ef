package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTService_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	svc, err := newJWTService(testAuthConfig(), fixedClock(issued))
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	issuer, err := newJWTService(testAuthConfig(), fixedClock(issued))
	require.NoError(t, err)
	token, err := issuer.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	otherKey, err := newJWTService(config.AuthConfig{
		JWTSecret:            "another-secret-that-is-long-enough-too",
		TokenLifetimeMinutes: 60,
	}, fixedClock(issued))
	require.NoError(t, err)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	refreshToken, err := refresh.SignedString([]byte(testSecret))
	require.NoError(t, err)

	early := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(issued.Add(30 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	earlyToken, err := early.SignedString([]byte(testSecret))
	require.NoError(t, err)

	testCases := []struct {
		name        string
		validator   *hmacJWTService
		token       string
		at          time.Time
		expectedErr error
	}{
		{"expired beyond skew", issuer, token, issued.Add(63 * time.Minute), ErrExpiredToken},
		{"within clock skew", issuer, token, issued.Add(61 * time.Minute), nil},
		{"not yet valid", issuer, earlyToken, issued, ErrTokenNotYetValid},
		{"wrong signing key", otherKey, token, issued, ErrInvalidToken},
		{"malformed", issuer, "not.a.token", issued, ErrInvalidToken},
		{"wrong token type", issuer, refreshToken, issued, ErrWrongTokenType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := *tc.validator
			validator.timeFunc = fixedClock(tc.at)

			_, err := validator.ValidateToken(context.Background(), tc.token)
			if tc.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})
	}
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewBcryptVerifier()
	assert.NoError(t, v.Compare(string(hash), "correct horse"))
	assert.Error(t, v.Compare(string(hash), "battery staple"))
}
