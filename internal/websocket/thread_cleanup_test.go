package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxcal/adapters"
	"github.com/satriahrh/voxcal/domain/entities"
)

type failingThreadRepo struct {
	*adapters.MemoryThreadRepository
	calls int
}

func (f *failingThreadRepo) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	f.calls++
	return 0, errors.New("database unavailable")
}

func TestThreadCleanupService_RunCleanup(t *testing.T) {
	repo := adapters.NewMemoryThreadRepository()
	ctx := context.Background()

	stale := entities.NewChatThread("stale")
	stale.LastActiveAt = time.Now().Add(-2 * time.Hour)
	repo.Save(ctx, stale)
	repo.Save(ctx, entities.NewChatThread("fresh"))

	service := NewThreadCleanupService(repo, time.Hour, time.Minute, zaptest.NewLogger(t))
	service.RunCleanup()

	if repo.Count() != 1 {
		t.Errorf("Expected 1 thread left, got %d", repo.Count())
	}
	if got, _ := repo.Get(ctx, "fresh"); got == nil {
		t.Error("Expected fresh thread to survive cleanup")
	}
}

func TestThreadCleanupService_StartStop(t *testing.T) {
	repo := adapters.NewMemoryThreadRepository()
	stale := entities.NewChatThread("stale")
	stale.LastActiveAt = time.Now().Add(-2 * time.Hour)
	repo.Save(context.Background(), stale)

	service := NewThreadCleanupService(repo, time.Hour, 10*time.Millisecond, zaptest.NewLogger(t))
	service.Start()

	waitFor(t, func() bool { return repo.Count() == 0 }, "Expected background pass to expire the thread")

	service.Stop()
	// Stop is idempotent
	service.Stop()
}

func TestThreadCleanupService_RepositoryErrorIsLogged(t *testing.T) {
	repo := &failingThreadRepo{MemoryThreadRepository: adapters.NewMemoryThreadRepository()}

	service := NewThreadCleanupService(repo, time.Hour, time.Minute, zaptest.NewLogger(t))
	service.RunCleanup()

	if repo.calls != 1 {
		t.Errorf("Expected 1 ExpireIdle call, got %d", repo.calls)
	}
}
