package task

import (
	"context"
	"strings"
	"time"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
)

// MaxDescriptionBytes caps task descriptions.
const MaxDescriptionBytes = 4096

// Service validates task operations before handing them to a Store.
type Service struct {
	store Store
}

// NewService constructs a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create adds a pending task for owner. The description is stored as given; it only has
// to contain something other than whitespace. dueDate may be nil or blank for "no due date".
func (s *Service) Create(ctx context.Context, owner identity.UserID, description string, dueDate *string) (ID, error) {
	const op = "task.Create"

	if !owner.Valid() {
		return 0, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing owner"}
	}

	if strings.TrimSpace(description) == "" {
		return 0, apperr.Invalid(op, "description is required")
	}
	if len(description) > MaxDescriptionBytes {
		return 0, apperr.Invalid(op, "description is too long")
	}

	due, err := normalizeDueDate(op, dueDate)
	if err != nil {
		return 0, err
	}

	return s.store.Create(ctx, owner, description, StatusPending, due)
}

// List returns owner's tasks ordered by id.
func (s *Service) List(ctx context.Context, owner identity.UserID) ([]Task, error) {
	const op = "task.List"

	if !owner.Valid() {
		return nil, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing owner"}
	}
	return s.store.ListByOwner(ctx, owner)
}

// UpdateStatusAndDueDate replaces a task's status and due date. A nil or blank
// dueDate clears the stored due date.
func (s *Service) UpdateStatusAndDueDate(ctx context.Context, id ID, owner identity.UserID, status Status, dueDate *string) error {
	const op = "task.Update"

	if !owner.Valid() {
		return apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing owner"}
	}
	if !status.Valid() {
		return apperr.Invalid(op, "status must be pending or completed")
	}
	if id <= 0 {
		return notFound(op)
	}

	due, err := normalizeDueDate(op, dueDate)
	if err != nil {
		return err
	}

	return s.store.Update(ctx, id, owner, status, due)
}

// Delete removes one of owner's tasks.
func (s *Service) Delete(ctx context.Context, id ID, owner identity.UserID) error {
	const op = "task.Delete"

	if !owner.Valid() {
		return apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing owner"}
	}
	if id <= 0 {
		return notFound(op)
	}
	return s.store.Delete(ctx, id, owner)
}

// normalizeDueDate trims the value and accepts YYYY-MM-DD or RFC 3339. Blank means none.
func normalizeDueDate(op string, in *string) (*string, error) {
	if in == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*in)
	if v == "" {
		return nil, nil
	}
	if _, err := time.Parse(time.DateOnly, v); err == nil {
		return &v, nil
	}
	if _, err := time.Parse(time.RFC3339, v); err == nil {
		return &v, nil
	}
	return nil, apperr.Invalid(op, "dueDate must be YYYY-MM-DD or RFC 3339")
}

func notFound(op string) error {
	return apperr.NotFoundError{Op: op, Resource: "task"}
}
