package session

import (
	"context"
	"sync"
)

// Saved is the interview identity persisted across page loads: the
// session id and the opening question written by the setup step.
type Saved struct {
	ID   string
	Seed string
}

// Repository persists the current interview identity across page
// loads, keeping the controller decoupled from the storage mechanism.
type Repository interface {
	Load(ctx context.Context) (Saved, error)
	Save(ctx context.Context, s Saved) error
	Clear(ctx context.Context) error
}

// MemoryRepository is an in-memory Repository, used in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	saved Saved
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(ctx context.Context) (Saved, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved, nil
}

func (r *MemoryRepository) Save(ctx context.Context, s Saved) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = s
	return nil
}

func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = Saved{}
	return nil
}
