package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/mocks"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name           string
		authHeader     string
		validateErr    error
		claims         *auth.Claims
		expectedStatus int
		expectedToken  string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			claims:         &auth.Claims{UserID: userID},
			expectedStatus: http.StatusOK,
			expectedToken:  "valid-token",
		},
		{
			name:           "scheme is case insensitive",
			authHeader:     "bearer valid-token",
			claims:         &auth.Claims{UserID: userID},
			expectedStatus: http.StatusOK,
			expectedToken:  "valid-token",
		},
		{
			name:           "missing auth header",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid auth format",
			authHeader:     "InvalidFormat",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "basic scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty bearer token",
			authHeader:     "Bearer   ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired-token",
			validateErr:    auth.ErrExpiredToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			validateErr:    auth.ErrInvalidToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong token type",
			authHeader:     "Bearer refresh-token",
			validateErr:    auth.ErrWrongTokenType,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unexpected validation failure",
			authHeader:     "Bearer some-token",
			validateErr:    errors.New("key store unavailable"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seenToken string
			jwtService := &mocks.MockJWTService{
				ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
					seenToken = token
					if tt.validateErr != nil {
						return nil, tt.validateErr
					}
					return tt.claims, nil
				},
			}
			mw := NewAuthMiddleware(jwtService)

			var capturedUserID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id, ok := GetUserID(r); ok {
					capturedUserID = id
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID, capturedUserID)
				assert.Equal(t, tt.expectedToken, seenToken)
			} else {
				assert.Equal(t, uuid.Nil, capturedUserID)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	t.Parallel()

	testUserID := uuid.New()

	t.Run("context with user ID", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(shared.WithUserID(req.Context(), testUserID))

		userID, ok := GetUserID(req)
		assert.True(t, ok)
		assert.Equal(t, testUserID, userID)
	})

	t.Run("context without user ID", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		userID, ok := GetUserID(req)
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, userID)
	})
}

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	handler := chimw.RequestID(NewTraceMiddleware(log)(next))
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(chimw.RequestIDHeader, "client-supplied-id")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "client-supplied-id", traceID)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, "client-supplied-id", e["request_id"])
	}
}

func TestTraceMiddleware_GeneratesIDWithoutChi(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	})

	NewTraceMiddleware(log)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)
}
