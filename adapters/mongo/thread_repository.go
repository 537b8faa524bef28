package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain/entities"
)

const threadsCollection = "threads"

// ThreadRepository implements repositories.ThreadRepository on a MongoDB collection.
// Documents are keyed by the thread id.
type ThreadRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewThreadRepository creates the repository and ensures its indexes
func NewThreadRepository(ctx context.Context, db *mongo.Database, logger *zap.Logger) (*ThreadRepository, error) {
	r := &ThreadRepository{
		collection: db.Collection(threadsCollection),
		logger:     logger,
	}

	// Index on last_active_at for cleanup operations
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "last_active_at", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create thread indexes: %w", err)
	}

	return r, nil
}

// Get implements repositories.ThreadRepository
func (r *ThreadRepository) Get(ctx context.Context, id string) (*entities.ChatThread, error) {
	if id == "" {
		return nil, errors.New("thread id cannot be empty")
	}

	var thread entities.ChatThread
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&thread)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get thread %s: %w", id, err)
	}

	return &thread, nil
}

// Save implements repositories.ThreadRepository
func (r *ThreadRepository) Save(ctx context.Context, thread *entities.ChatThread) error {
	if thread == nil {
		return errors.New("thread cannot be nil")
	}
	if err := thread.Validate(); err != nil {
		return err
	}

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": thread.ID},
		thread,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save thread %s: %w", thread.ID, err)
	}

	return nil
}

// ExpireIdle implements repositories.ThreadRepository
func (r *ThreadRepository) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.collection.DeleteMany(ctx, bson.M{
		"last_active_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire threads: %w", err)
	}

	if result.DeletedCount > 0 {
		r.logger.Info("Expired idle threads",
			zap.Int64("count", result.DeletedCount),
			zap.Time("cutoff", cutoff))
	}

	return int(result.DeletedCount), nil
}
