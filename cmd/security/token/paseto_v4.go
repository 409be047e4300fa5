package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"golang.org/x/crypto/hkdf"
)

// pasetoKeyInfo binds the derived key to its purpose.
const pasetoKeyInfo = "tasktrack paseto v4.local access token"

var errOutsideWindow = errors.New("token outside validity window")

type pasetoV4LocalManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	key paseto.V4SymmetricKey
}

// newPasetoV4LocalManager derives a 32-byte v4.local key from the configured secret.
func newPasetoV4LocalManager(cfg Config, secret []byte) (*pasetoV4LocalManager, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(pasetoKeyInfo)), raw); err != nil {
		return nil, fmt.Errorf("%w: derive key: %v", ErrConfig, err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return &pasetoV4LocalManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.TTL,
		clockSkew: cfg.ClockSkew,
		key:       key,
	}, nil
}

func (m *pasetoV4LocalManager) Issue(userID int64, now time.Time) (Issued, error) {
	// PASETO time claims are RFC 3339 with second precision.
	now = now.Truncate(time.Second)
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetSubject(strconv.FormatInt(userID, 10))
	tok.SetIssuedAt(now)
	tok.SetExpiration(exp)

	return Issued{Token: tok.V4Encrypt(m.key, nil), ExpiresAt: exp}, nil
}

func (m *pasetoV4LocalManager) Verify(tokenStr string, now time.Time) (Claims, error) {
	// A fresh parser per call avoids accumulating rules across verifies. The default
	// expiry rule reads the wall clock, so the window is checked against now instead.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(m.validAt(now))

	parsed, err := p.ParseV4Local(m.key, tokenStr, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	sub, err := parsed.GetSubject()
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	uid, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || uid <= 0 {
		return Claims{}, ErrInvalidToken
	}

	iss, _ := parsed.GetIssuer()
	iat, _ := parsed.GetIssuedAt()
	exp, _ := parsed.GetExpiration()

	return Claims{
		UserID:    uid,
		Issuer:    iss,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

func (m *pasetoV4LocalManager) validAt(now time.Time) paseto.Rule {
	return func(t paseto.Token) error {
		exp, err := t.GetExpiration()
		if err != nil {
			return err
		}
		iat, err := t.GetIssuedAt()
		if err != nil {
			return err
		}
		if !withinWindow(iat, exp, now, m.clockSkew) {
			return errOutsideWindow
		}
		return nil
	}
}

// withinWindow rejects tokens past expiry, or issued in the future, beyond skew.
func withinWindow(iat, exp, now time.Time, skew time.Duration) bool {
	if exp.IsZero() || now.After(exp.Add(skew)) {
		return false
	}
	if !iat.IsZero() && iat.After(now.Add(skew)) {
		return false
	}
	return true
}
