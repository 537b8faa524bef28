package websocket

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain/repositories"
)

// ThreadCleanupService periodically expires chat threads that have been idle longer than the TTL
type ThreadCleanupService struct {
	threadRepo repositories.ThreadRepository
	ttl        time.Duration
	interval   time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewThreadCleanupService creates a new thread cleanup service
func NewThreadCleanupService(threadRepo repositories.ThreadRepository, ttl, interval time.Duration, logger *zap.Logger) *ThreadCleanupService {
	return &ThreadCleanupService{
		threadRepo: threadRepo,
		ttl:        ttl,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *ThreadCleanupService) Start() {
	s.wg.Add(1)
	go s.cleanupLoop()
	s.logger.Info("Thread cleanup service started",
		zap.Duration("ttl", s.ttl),
		zap.Duration("interval", s.interval))
}

// Stop gracefully stops the cleanup service and waits for a running pass to finish
func (s *ThreadCleanupService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Info("Thread cleanup service stopped")
}

func (s *ThreadCleanupService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunCleanup()
		}
	}
}

// RunCleanup performs one expiry pass
func (s *ThreadCleanupService) RunCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.threadRepo.ExpireIdle(ctx, s.ttl)
	if err != nil {
		s.logger.Error("Failed to expire idle threads", zap.Error(err))
		return
	}

	s.logger.Info("Thread cleanup completed", zap.Int("removed", removed))
}
