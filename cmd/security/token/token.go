package token

import (
	"fmt"
	"strings"
	"time"
)

// Claims is the verified identity envelope carried by a token.
type Claims struct {
	UserID    int64
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issued is a freshly signed token and its expiry.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Manager issues and verifies identity tokens.
//
// Verify returns ErrInvalidToken for every failure and never returns claims
// from a token whose signature or time window did not check out.
type Manager interface {
	Issue(userID int64, now time.Time) (Issued, error)
	Verify(token string, now time.Time) (Claims, error)
}

// NewManager builds the Manager selected by cfg.Format after validating cfg.
func NewManager(cfg Config) (Manager, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	secret := []byte(strings.TrimSpace(cfg.Secret))

	switch cfg.Format {
	case FormatPaseto:
		m, err := newPasetoV4LocalManager(cfg, secret)
		if err != nil {
			return nil, err
		}
		return m, nil
	case FormatJWT:
		return newJWTManager(cfg, secret), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrConfig, cfg.Format)
	}
}
