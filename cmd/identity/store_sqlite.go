package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/internal/storage"
)

// SQLiteStore implements Store over a database opened with storage.OpenSQLite.
// The handle is owned by the caller.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore constructs a SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("identity: nil sqlite handle")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Register inserts a user. The UNIQUE(username) column constraint decides concurrent races.
func (s *SQLiteStore) Register(ctx context.Context, username, passwordHash string) (UserID, error) {
	const op = "identity.Register"

	if err := ctx.Err(); err != nil {
		return 0, apperr.Storage(op, err)
	}
	if err := CheckUsername(op, username); err != nil {
		return 0, err
	}
	if passwordHash == "" {
		return 0, apperr.Invalid(op, "password hash is required")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, storage.ToMillis(s.now()),
	)
	if err != nil {
		if constraint, ok := storage.UniqueViolation(err); ok {
			return 0, apperr.ConflictError{Op: op, Field: conflictField(constraint)}
		}
		return 0, apperr.Storage(op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Storage(op, err)
	}
	return UserID(id), nil
}

// FindByUsername looks up a user by exact username.
func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.FindByUsername"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}
	if strings.TrimSpace(username) == "" {
		return User{}, apperr.Invalid(op, "username is required")
	}
	return s.findOne(ctx, op, `username = ?`, username)
}

// FindByID looks up a user by id.
func (s *SQLiteStore) FindByID(ctx context.Context, id UserID) (User, error) {
	const op = "identity.FindByID"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}
	if !id.Valid() {
		return User{}, userNotFound(op)
	}
	return s.findOne(ctx, op, `id = ?`, int64(id))
}

func (s *SQLiteStore) findOne(ctx context.Context, op, where string, arg any) (User, error) {
	var (
		u         User
		id        int64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE `+where,
		arg,
	).Scan(&id, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, userNotFound(op)
		}
		return User{}, apperr.Storage(op, err)
	}
	u.ID = UserID(id)
	u.CreatedAt = storage.FromMillis(createdAt)
	return u, nil
}

var _ Store = (*SQLiteStore)(nil)
