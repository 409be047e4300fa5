package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"tasktrack/cmd/internal/storage"
	"tasktrack/cmd/security/password"
	"tasktrack/cmd/security/token"
)

// EnvPrefix is prepended to every variable read by LoadConfig.
const EnvPrefix = "TASKTRACK_"

// envFileVar names an explicit .env file. When unset, ./.env is loaded if present.
const envFileVar = EnvPrefix + "ENV_FILE"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains all runtime configuration, parsed once at startup.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES"`

	StorageDriver string `env:"STORAGE_DRIVER"`
	SQLitePath    string `env:"SQLITE_PATH"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBSchema      string `env:"DB_SCHEMA"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS"`
	DBMinConns    int32  `env:"DB_MIN_CONNS"`

	Password password.Config
	Token    token.Config
}

// DefaultConfig returns the configuration used when no variables are set.
// It is not valid on its own: a token secret is always required.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:8080",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		MaxBodyBytes:      1 << 20,

		StorageDriver: DriverSQLite,
		SQLitePath:    "tasktrack.db",
		DBSchema:      "public",
		DBMaxConns:    10,
		DBMinConns:    0,

		Password: password.DefaultConfig(),
		Token:    token.DefaultConfig(),
	}
}

// LoadConfig loads an optional .env file, then parses TASKTRACK_* variables on top of
// DefaultConfig and validates the result.
func LoadConfig() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile never overrides variables already present in the process environment.
func loadEnvFile() error {
	if path := strings.TrimSpace(os.Getenv(envFileVar)); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// Check validates the configuration and fails fast on anything unusable.
func (c Config) Check() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("config: empty http addr")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("config: max body bytes must be positive")
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("config: sqlite driver requires TASKTRACK_SQLITE_PATH")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("config: postgres driver requires TASKTRACK_DATABASE_URL")
		}
		if !storage.ValidSchema(c.DBSchema) {
			return fmt.Errorf("config: invalid db schema %q", c.DBSchema)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}

	if err := c.Password.Check(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Token.Check(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
