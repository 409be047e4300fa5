package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
)

// MemoryStore is an in-process Store for tests and the "memory" storage driver.
// It does not check that owners exist.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID ID
	tasks  map[ID]Task
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[ID]Task),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, owner identity.UserID, description string, status Status, dueDate *string) (ID, error) {
	const op = "task.Create"

	if err := ctx.Err(); err != nil {
		return 0, apperr.Storage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	s.tasks[s.nextID] = Task{
		ID:          s.nextID,
		Owner:       owner,
		Description: description,
		Status:      status,
		DueDate:     cloneString(dueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.nextID, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner identity.UserID) ([]Task, error) {
	const op = "task.List"

	if err := ctx.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Task{}
	for _, t := range s.tasks {
		if t.Owner != owner {
			continue
		}
		t.DueDate = cloneString(t.DueDate)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id ID, owner identity.UserID, status Status, dueDate *string) error {
	const op = "task.Update"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return notFound(op)
	}
	t.Status = status
	t.DueDate = cloneString(dueDate)
	t.UpdatedAt = s.now().UTC()
	s.tasks[id] = t
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id ID, owner identity.UserID) error {
	const op = "task.Delete"

	if err := ctx.Err(); err != nil {
		return apperr.Storage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return notFound(op)
	}
	delete(s.tasks, id)
	return nil
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ Store = (*MemoryStore)(nil)
