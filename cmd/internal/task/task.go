package task

import (
	"context"
	"strconv"
	"strings"
	"time"

	"tasktrack/cmd/identity"
)

// ID is a system-assigned task identifier.
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses a path segment. Anything that is not a positive integer is reported
// as not found, since no task can have that id.
func ParseID(op, raw string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, notFound(op)
	}
	return ID(n), nil
}

// Status is a task's completion state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          ID
	Owner       identity.UserID
	Description string
	Status      Status
	// DueDate is nil when the task has no due date.
	DueDate   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the task persistence boundary. Implementations trust their arguments to
// have been validated by Service; they only enforce ownership.
//
// Update and Delete return apperr.NotFoundError{Resource: "task"} when no row matches
// both id and owner.
type Store interface {
	Create(ctx context.Context, owner identity.UserID, description string, status Status, dueDate *string) (ID, error)
	ListByOwner(ctx context.Context, owner identity.UserID) ([]Task, error)
	Update(ctx context.Context, id ID, owner identity.UserID, status Status, dueDate *string) error
	Delete(ctx context.Context, id ID, owner identity.UserID) error
}
