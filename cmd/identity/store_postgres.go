package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema/table identifiers are quoted with pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema holding the users table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !storage.ValidSchema(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "public",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Register inserts a user. The UNIQUE(username) constraint decides concurrent races.
func (s *PostgresStore) Register(ctx context.Context, username, passwordHash string) (UserID, error) {
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

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+storage.Ident(s.schema, "users")+` (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		if constraint, ok := storage.UniqueViolation(err); ok {
			return 0, apperr.ConflictError{Op: op, Field: conflictField(constraint)}
		}
		return 0, apperr.Storage(op, err)
	}
	return UserID(id), nil
}

// FindByUsername looks up a user by exact username.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.FindByUsername"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}
	if strings.TrimSpace(username) == "" {
		return User{}, apperr.Invalid(op, "username is required")
	}

	return s.findOne(ctx, op, `username = $1`, username)
}

// FindByID looks up a user by id.
func (s *PostgresStore) FindByID(ctx context.Context, id UserID) (User, error) {
	const op = "identity.FindByID"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}
	if !id.Valid() {
		return User{}, userNotFound(op)
	}

	return s.findOne(ctx, op, `id = $1`, int64(id))
}

func (s *PostgresStore) findOne(ctx context.Context, op, where string, arg any) (User, error) {
	var (
		u  User
		id int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		   FROM `+storage.Ident(s.schema, "users")+`
		  WHERE `+where,
		arg,
	).Scan(&id, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, userNotFound(op)
		}
		return User{}, apperr.Storage(op, err)
	}
	u.ID = UserID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

var _ Store = (*PostgresStore)(nil)
