package token

import "errors"

// Public, stable errors for callers.
var (
	// ErrInvalidToken covers every verification failure: malformed, bad signature,
	// wrong algorithm/issuer, expired or missing claims.
	ErrInvalidToken = errors.New("invalid token")

	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")
	ErrConfig         = errors.New("invalid token config")
)
