package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env var read by FromEnv.
const EnvPrefix = "TASKTRACK_"

// MinSecretBytes is the minimum signing secret size (HMAC-SHA256 recommendation).
const MinSecretBytes = 32

// Format names a token encoding.
type Format string

const (
	FormatJWT    Format = "jwt"
	FormatPaseto Format = "paseto"
)

// Config controls token issuance and verification.
type Config struct {
	// Secret is the process-wide signing secret. It is never logged.
	Secret string        `env:"TOKEN_SECRET"`
	Format Format        `env:"TOKEN_FORMAT"`
	Issuer string        `env:"TOKEN_ISSUER"`
	TTL    time.Duration `env:"TOKEN_TTL"`
	// ClockSkew is the tolerance applied to expiry and issued-at checks. Default none.
	ClockSkew time.Duration `env:"TOKEN_CLOCK_SKEW"`
}

// DefaultConfig returns a one hour JWT configuration without a secret.
func DefaultConfig() Config {
	return Config{
		Format:    FormatJWT,
		Issuer:    "tasktrack",
		TTL:       time.Hour,
		ClockSkew: 0,
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Required:
//   - TASKTRACK_TOKEN_SECRET (>= 32 bytes)
//
// Optional:
//   - TASKTRACK_TOKEN_FORMAT (jwt|paseto)
//   - TASKTRACK_TOKEN_ISSUER
//   - TASKTRACK_TOKEN_TTL, TASKTRACK_TOKEN_CLOCK_SKEW (Go durations)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check validates the configuration. The secret is measured in bytes because it is used as raw key material.
func (c Config) Check() error {
	secret := strings.TrimSpace(c.Secret)
	if secret == "" {
		return ErrSecretMissing
	}
	if len(secret) < MinSecretBytes {
		return ErrSecretTooShort
	}
	switch c.Format {
	case FormatJWT, FormatPaseto:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrConfig, c.Format)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: empty issuer", ErrConfig)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrConfig)
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("%w: clock skew must not be negative", ErrConfig)
	}
	return nil
}
