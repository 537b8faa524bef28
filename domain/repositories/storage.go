package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/voxcal/domain/entities"
)

// ThreadRepository defines data access methods for chat threads
type ThreadRepository interface {
	// Get returns the thread or nil, nil when it does not exist
	Get(ctx context.Context, id string) (*entities.ChatThread, error)
	// Save creates or replaces the thread
	Save(ctx context.Context, thread *entities.ChatThread) error
	// ExpireIdle removes threads inactive for longer than olderThan and returns how many were removed
	ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error)
}
