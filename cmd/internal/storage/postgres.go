package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPingTimeout bounds readiness and startup connectivity checks.
const DefaultPingTimeout = 3 * time.Second

// PostgresConfig configures NewPostgresPool.
type PostgresConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema reports whether s is a plain PostgreSQL identifier.
func ValidSchema(s string) bool {
	return pgIdentRe.MatchString(s)
}

// Ident safely quotes a schema-qualified identifier: "schema"."name".
func Ident(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// NewPostgresPool builds a pgxpool and validates connectivity.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("storage: database url is required")
	}

	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	if err := PingPostgres(ctx, pool, DefaultPingTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return pool, nil
}

// PingPostgres checks that a connection can be acquired within timeout.
func PingPostgres(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// ApplyPostgresSchema creates schema and the tasktrack tables inside it when missing.
func ApplyPostgresSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !ValidSchema(schema) {
		return fmt.Errorf("storage: invalid schema identifier %q", schema)
	}

	ddl := strings.NewReplacer(
		"{{schema}}", pgx.Identifier{schema}.Sanitize(),
		"{{users}}", Ident(schema, "users"),
		"{{tasks}}", Ident(schema, "tasks"),
	).Replace(postgresSchema)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("storage: apply postgres schema: %w", err)
	}
	return nil
}
