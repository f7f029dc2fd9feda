package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.AuthConfig
		wantErr bool
	}{
		{name: "valid", cfg: config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}},
		{name: "short secret", cfg: config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60}, wantErr: true},
		{name: "zero lifetime", cfg: config.AuthConfig{JWTSecret: testSecret}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, err := NewJWTService(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	lifetime := time.Hour
	userID := uuid.New()
	svc := newHMACJWTService(testSecret, lifetime, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	lifetime := time.Hour
	userID := uuid.New()

	sign := func(t *testing.T, claims jwtCustomClaims, method jwt.SigningMethod, key any) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	baseClaims := func(tokenType string, uid uuid.UUID) jwtCustomClaims {
		return jwtCustomClaims{
			UserID:    uid,
			TokenType: tokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uid.String(),
				IssuedAt:  jwt.NewNumericDate(fixedTime),
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(lifetime)),
			},
		}
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		now     time.Time
		wantErr error
	}{
		{
			name: "valid token",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, userID), jwt.SigningMethodHS256, []byte(testSecret))
			},
			now: fixedTime.Add(time.Minute),
		},
		{
			name: "within clock skew after expiry",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, userID), jwt.SigningMethodHS256, []byte(testSecret))
			},
			now: fixedTime.Add(lifetime + time.Minute),
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, userID), jwt.SigningMethodHS256, []byte(testSecret))
			},
			now:     fixedTime.Add(lifetime + time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := baseClaims(tokenTypeAccess, userID)
				c.NotBefore = jwt.NewNumericDate(fixedTime.Add(time.Hour))
				return sign(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			now:     fixedTime,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, userID), jwt.SigningMethodHS256, []byte(wrongSecret))
			},
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "other hmac method",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, userID), jwt.SigningMethodHS512, []byte(testSecret))
			},
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token",
			token: func(t *testing.T) string {
				return sign(t, baseClaims("refresh", userID), jwt.SigningMethodHS256, []byte(testSecret))
			},
			now:     fixedTime,
			wantErr: ErrWrongTokenType,
		},
		{
			name: "missing user id",
			token: func(t *testing.T) string {
				return sign(t, baseClaims(tokenTypeAccess, uuid.Nil), jwt.SigningMethodHS256, []byte(testSecret))
			},
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func(*testing.T) string { return "this.is.not.a.valid.jwt.token" },
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newHMACJWTService(testSecret, lifetime, fixedClock(tc.now))
			claims, err := svc.ValidateToken(context.Background(), tc.token(t))

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}
