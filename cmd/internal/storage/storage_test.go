package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func openTestSQLite(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "tasktrack.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, ctx
}

func TestOpenSQLite_AppliesSchemaIdempotently(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasktrack.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var n int
		if err := db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'tasks')`).Scan(&n); err != nil {
			t.Fatalf("inspect schema: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 tables, got %d", n)
		}
		_ = db.Close()
	}
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestSQLiteConstraintClassification(t *testing.T) {
	t.Parallel()

	db, ctx := openTestSQLite(t)

	insertUser := `INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insertUser, "alice", "x", ToMillis(time.Now())); err != nil {
		t.Fatalf("insert alice: %v", err)
	}

	_, err := db.ExecContext(ctx, insertUser, "alice", "y", ToMillis(time.Now()))
	constraint, ok := UniqueViolation(err)
	if !ok {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if constraint == "" {
		t.Fatalf("expected a constraint target from %v", err)
	}

	// Usernames are case-sensitive: a different casing is a different account.
	if _, err := db.ExecContext(ctx, insertUser, "Alice", "z", ToMillis(time.Now())); err != nil {
		t.Fatalf("insert Alice: %v", err)
	}

	insertTask := `INSERT INTO tasks (owner_id, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	now := ToMillis(time.Now())

	_, err = db.ExecContext(ctx, insertTask, 9999, "orphan", "pending", now, now)
	if !IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	_, err = db.ExecContext(ctx, insertTask, 1, "bad status", "archived", now, now)
	if !IsCheckViolation(err) {
		t.Fatalf("expected check violation, got %v", err)
	}
}

func TestUniqueViolation_Postgres(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "UQ_Users_Username"})
	constraint, ok := UniqueViolation(err)
	if !ok || constraint != "uq_users_username" {
		t.Fatalf("got (%q, %v)", constraint, ok)
	}

	if _, ok := UniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Fatalf("foreign key error classified as unique violation")
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("expected foreign key violation")
	}
	if !IsCheckViolation(&pgconn.PgError{Code: "23514"}) {
		t.Fatalf("expected check violation")
	}
	if _, ok := UniqueViolation(errors.New("boom")); ok {
		t.Fatalf("plain error classified as unique violation")
	}
	if _, ok := UniqueViolation(nil); ok {
		t.Fatalf("nil classified as unique violation")
	}
}

func TestSQLiteConstraintTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "constraint failed: UNIQUE constraint failed: users.username (2067)", want: "users.username"},
		{in: "UNIQUE constraint failed: Users.Username", want: "users.username"},
		{in: "disk I/O error", want: ""},
	}
	for _, tc := range cases {
		if got := sqliteConstraintTarget(tc.in); got != tc.want {
			t.Fatalf("sqliteConstraintTarget(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIdentAndValidSchema(t *testing.T) {
	t.Parallel()

	if got := Ident("public", "users"); got != `"public"."users"` {
		t.Fatalf("Ident = %s", got)
	}
	if got := Ident(`we"ird`, "tasks"); got != `"we""ird"."tasks"` {
		t.Fatalf("Ident did not escape quotes: %s", got)
	}

	for _, ok := range []string{"public", "tasktrack_it_01", "_x"} {
		if !ValidSchema(ok) {
			t.Fatalf("expected %q to be valid", ok)
		}
	}
	for _, bad := range []string{"", "1abc", "a-b", `a"b`, "a b"} {
		if ValidSchema(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestMillisRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("x", 3600))
	got := FromMillis(ToMillis(now))
	if !got.Equal(now) || got.Location() != time.UTC {
		t.Fatalf("round trip mismatch: %s vs %s", got, now)
	}
}
