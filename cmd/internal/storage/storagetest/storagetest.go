// Package storagetest opens throwaway databases for store tests.
//
// Postgres tests are opt-in: they require TASKTRACK_TEST_DATABASE_URL and skip when it is
// unset. Outside CI an unreachable server also skips, to keep local runs fast.
package storagetest

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasktrack/cmd/internal/ids"
	"tasktrack/cmd/internal/storage"
)

// DatabaseURLEnv names the env var that enables Postgres integration tests.
const DatabaseURLEnv = "TASKTRACK_TEST_DATABASE_URL"

// SQLite opens a schema-initialized SQLite database in t.TempDir().
func SQLite(t testing.TB) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "tasktrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Postgres connects to the test server and creates a fresh schema with the tasktrack
// tables. The schema is dropped and the pool closed on cleanup.
func Postgres(t testing.TB) (*pgxpool.Pool, string) {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv(DatabaseURLEnv))
	if raw == "" {
		t.Skipf("integration test skipped: %s is not set", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, storage.PostgresConfig{URL: raw})
	if err != nil {
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (%s set): %v", DatabaseURLEnv, err)
		}
		t.Fatalf("connect postgres: %v", err)
	}

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		pool.Close()
		t.Fatalf("ulid: %v", err)
	}
	schema := "tasktrack_it_" + strings.ToLower(id)

	if err := storage.ApplyPostgresSchema(ctx, pool, schema); err != nil {
		pool.Close()
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		_, _ = pool.Exec(dropCtx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
		pool.Close()
	})
	return pool, schema
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
