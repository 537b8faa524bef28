package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/satriahrh/voxcal/domain/entities"
)

// MemoryThreadRepository is an in-memory implementation of ThreadRepository.
// Threads are lost on restart.
type MemoryThreadRepository struct {
	mu      sync.RWMutex
	threads map[string]*entities.ChatThread
	now     func() time.Time
}

// NewMemoryThreadRepository creates a new in-memory thread repository
func NewMemoryThreadRepository() *MemoryThreadRepository {
	return &MemoryThreadRepository{
		threads: make(map[string]*entities.ChatThread),
		now:     time.Now,
	}
}

// Get implements ThreadRepository
func (m *MemoryThreadRepository) Get(ctx context.Context, id string) (*entities.ChatThread, error) {
	if id == "" {
		return nil, errors.New("thread id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	thread, exists := m.threads[id]
	if !exists {
		return nil, nil
	}
	return thread.Clone(), nil
}

// Save implements ThreadRepository
func (m *MemoryThreadRepository) Save(ctx context.Context, thread *entities.ChatThread) error {
	if thread == nil {
		return errors.New("thread cannot be nil")
	}

	if err := thread.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threads[thread.ID] = thread.Clone()
	return nil
}

// ExpireIdle implements ThreadRepository
func (m *MemoryThreadRepository) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, thread := range m.threads {
		if thread.IsIdle(olderThan, now) {
			delete(m.threads, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored threads
func (m *MemoryThreadRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.threads)
}
