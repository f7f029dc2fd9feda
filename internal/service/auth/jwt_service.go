package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and validates bearer tokens for the HTTP adapter.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken verifies the signature, expiry and token type of
	// tokenString and returns its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	// UserID identifies the authenticated user.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is always "access" for tokens accepted by ValidateToken.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
