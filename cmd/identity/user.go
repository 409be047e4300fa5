package identity

import (
	"context"
	"strconv"
	"time"
)

// UserID is the system-assigned identity of an account.
// It is the only owner identity task operations accept.
type UserID int64

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// Valid reports whether id could have been assigned by a store.
func (id UserID) Valid() bool { return id > 0 }

// User is a registered account. Users are immutable once created and never deleted.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Store is the credential persistence boundary.
//
// Register returns apperr.ConflictError{Field: "username"} when the username is taken.
// Uniqueness is enforced by the backend atomically, never by a prior lookup.
// Find* return apperr.NotFoundError{Resource: "user"} for unknown users.
type Store interface {
	Register(ctx context.Context, username, passwordHash string) (UserID, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id UserID) (User, error)
}
