package repository

import (
	"context"
	"fmt"
	"time"

	schedulingerrors "agendazap/internal/scheduling/errors"
	"agendazap/pkg/config"
	"agendazap/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ConversationLockCollectionName = "Conversation_locks"

// LockRepository provides per-phone advisory locks so that two messages
// from the same number are never processed concurrently.
type LockRepository interface {
	Acquire(ctx context.Context, phone string) error
	Release(ctx context.Context, phone string) error
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	collection := db.Collection(ConversationLockCollectionName)

	// TTL index cleans up locks orphaned by a crashed consumer. Best effort:
	// expired locks are also cleared inline on Acquire.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		cfg.Log.Warn("Failed to ensure conversation lock TTL index", "error", err)
	}

	return &mongoLockRepository{
		cfg:        cfg,
		collection: collection,
	}
}

func (r *mongoLockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Acquire takes the lock for a phone number or returns ErrConversationLocked.
// A lock left behind past its expiry is cleared before the insert so a
// crashed holder cannot wedge the conversation.
func (r *mongoLockRepository) Acquire(ctx context.Context, phone string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        phone,
		"expires_at": bson.M{"$lt": now},
	})
	if err != nil {
		return fmt.Errorf("failed to clear expired conversation lock: %w", err)
	}

	lock := &model.ConversationLock{
		Phone:     phone,
		ExpiresAt: now.Add(r.cfg.ConversationLockTTL),
		CreatedAt: now,
	}
	_, err = r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return schedulingerrors.ErrConversationLocked
		}
		return fmt.Errorf("failed to acquire conversation lock: %w", err)
	}
	return nil
}

func (r *mongoLockRepository) Release(ctx context.Context, phone string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": phone})
	if err != nil {
		return fmt.Errorf("failed to release conversation lock: %w", err)
	}
	return nil
}
