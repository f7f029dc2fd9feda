package auth

import "errors"

// Errors returned by JWTService.ValidateToken. The bearer middleware maps all
// of them to 401 and never echoes the underlying jwt error to the client.
var (
	// ErrInvalidToken covers malformed tokens, bad signatures and algorithms
	// other than HS256.
	ErrInvalidToken = errors.New("invalid bearer token")

	ErrExpiredToken = errors.New("bearer token expired")

	// ErrTokenNotYetValid means nbf lies beyond the allowed clock skew.
	ErrTokenNotYetValid = errors.New("bearer token not yet valid")

	// ErrWrongTokenType is a correctly signed token whose type claim is
	// not "access".
	ErrWrongTokenType = errors.New("bearer token has wrong type")

	// ErrMissingToken is used when a request reaches a handler without an
	// authenticated user.
	ErrMissingToken = errors.New("bearer token missing")
)
