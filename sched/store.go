package sched

import (
	"context"
	"sync"
)

// Store is durable keyed storage for pending tasks. Delete is
// delete-if-present: when a concurrent fire and cancel race for the
// same record, the loser observes false and treats it as a no-op,
// never an error.
type Store interface {
	Put(ctx context.Context, t Task) error
	Get(ctx context.Context, id string) (Task, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ListPending returns every stored pending task. Used once, at
	// startup recovery.
	ListPending(ctx context.Context) ([]Task, error)
}

// MemStore is an in-memory Store for tests and ephemeral runs.
type MemStore struct {
	mu    sync.Mutex
	tasks map[string]Task
}

func NewMemStore() *MemStore {
	return &MemStore{tasks: make(map[string]Task)}
}

func (m *MemStore) Put(ctx context.Context, t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *MemStore) Get(ctx context.Context, id string) (Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok, nil
}

func (m *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok, nil
}

func (m *MemStore) ListPending(ctx context.Context) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.Status == StatusPending {
			out = append(out, t)
		}
	}
	return out, nil
}
