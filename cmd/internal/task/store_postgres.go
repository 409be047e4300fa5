package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/internal/storage"
)

// PostgresStore implements Store over PostgreSQL. The pool is owned by the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema holding the tasks table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !storage.ValidSchema(schema) {
			return fmt.Errorf("task: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "public"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("task: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) tasks() string { return storage.Ident(s.schema, "tasks") }

func (s *PostgresStore) Create(ctx context.Context, owner identity.UserID, description string, status Status, dueDate *string) (ID, error) {
	const op = "task.Create"

	if err := ctx.Err(); err != nil {
		return 0, apperr.Storage(op, err)
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.tasks()+` (owner_id, description, status, due_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		int64(owner), description, string(status), dueDate,
	).Scan(&id)
	if err != nil {
		return 0, classifyWrite(op, err)
	}
	return ID(id), nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner identity.UserID) ([]Task, error) {
	const op = "task.List"

	if err := ctx.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, description, status, due_date, created_at, updated_at
		   FROM `+s.tasks()+`
		  WHERE owner_id = $1
		  ORDER BY id`,
		int64(owner),
	)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Task, error) {
		var (
			t       Task
			id      int64
			ownerID int64
			status  string
		)
		if err := row.Scan(&id, &ownerID, &t.Description, &status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return Task{}, err
		}
		t.ID = ID(id)
		t.Owner = identity.UserID(ownerID)
		t.Status = Status(status)
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		return t, nil
	})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if out == nil {
		out = []Task{}
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id ID, owner identity.UserID, status Status, dueDate *string) error {
	const op = "task.Update"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+s.tasks()+`
		    SET status = $1,
		        due_date = $2,
		        updated_at = now()
		  WHERE id = $3
		    AND owner_id = $4`,
		string(status), dueDate, int64(id), int64(owner),
	)
	if err != nil {
		return classifyWrite(op, err)
	}
	if ct.RowsAffected() == 0 {
		return notFound(op)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id ID, owner identity.UserID) error {
	const op = "task.Delete"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	ct, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.tasks()+` WHERE id = $1 AND owner_id = $2`,
		int64(id), int64(owner),
	)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if ct.RowsAffected() == 0 {
		return notFound(op)
	}
	return nil
}

// classifyWrite maps constraint failures that slipped past validation.
func classifyWrite(op string, err error) error {
	switch {
	case storage.IsForeignKeyViolation(err):
		return apperr.NotFoundError{Op: op, Resource: "user"}
	case storage.IsCheckViolation(err):
		return apperr.OpError{Op: op, Kind: apperr.ErrInvalidInput, Msg: "constraint violated", Err: err}
	default:
		return apperr.Storage(op, err)
	}
}

var _ Store = (*PostgresStore)(nil)
