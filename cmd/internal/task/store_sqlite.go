package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/internal/storage"
)

// SQLiteStore implements Store over a database opened with storage.OpenSQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore constructs a SQLiteStore. The handle is owned by the caller.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("task: nil sqlite handle")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, owner identity.UserID, description string, status Status, dueDate *string) (ID, error) {
	const op = "task.Create"

	if err := ctx.Err(); err != nil {
		return 0, apperr.Storage(op, err)
	}

	now := storage.ToMillis(s.now())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (owner_id, description, status, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(owner), description, string(status), dueDate, now, now,
	)
	if err != nil {
		return 0, classifyWrite(op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Storage(op, err)
	}
	return ID(id), nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner identity.UserID) ([]Task, error) {
	const op = "task.List"

	if err := ctx.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, description, status, due_date, created_at, updated_at
		   FROM tasks
		  WHERE owner_id = ?
		  ORDER BY id`,
		int64(owner),
	)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		var (
			t         Task
			id        int64
			ownerID   int64
			status    string
			due       sql.NullString
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&id, &ownerID, &t.Description, &status, &due, &createdAt, &updatedAt); err != nil {
			return nil, apperr.Storage(op, err)
		}
		t.ID = ID(id)
		t.Owner = identity.UserID(ownerID)
		t.Status = Status(status)
		if due.Valid {
			v := due.String
			t.DueDate = &v
		}
		t.CreatedAt = storage.FromMillis(createdAt)
		t.UpdatedAt = storage.FromMillis(updatedAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id ID, owner identity.UserID, status Status, dueDate *string) error {
	const op = "task.Update"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		    SET status = ?, due_date = ?, updated_at = ?
		  WHERE id = ? AND owner_id = ?`,
		string(status), dueDate, storage.ToMillis(s.now()), int64(id), int64(owner),
	)
	if err != nil {
		return classifyWrite(op, err)
	}
	return requireOneRow(op, res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id ID, owner identity.UserID) error {
	const op = "task.Delete"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?`,
		int64(id), int64(owner),
	)
	if err != nil {
		return apperr.Storage(op, err)
	}
	return requireOneRow(op, res)
}

func requireOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(op, err)
	}
	if n == 0 {
		return notFound(op)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
