package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"tasktrack/cmd/internal/apperr"
)

// MemoryStore is an in-process Store for tests and the "memory" storage driver.
// A single mutex covers the duplicate check and the insert, which makes Register atomic.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     UserID
	byID       map[UserID]User
	byUsername map[string]UserID
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[UserID]User),
		byUsername: make(map[string]UserID),
		now:        time.Now,
	}
}

func (s *MemoryStore) Register(ctx context.Context, username, passwordHash string) (UserID, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return 0, apperr.ConflictError{Op: op, Field: "username"}
	}

	s.nextID++
	u := User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.byID[u.ID] = u
	s.byUsername[username] = u.ID
	return u.ID, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.FindByUsername"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}
	if strings.TrimSpace(username) == "" {
		return User{}, apperr.Invalid(op, "username is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return User{}, userNotFound(op)
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id UserID) (User, error) {
	const op = "identity.FindByID"

	if err := ctx.Err(); err != nil {
		return User{}, apperr.Storage(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, userNotFound(op)
	}
	return u, nil
}

var _ Store = (*MemoryStore)(nil)
