package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	schedulingerrors "agendazap/internal/scheduling/errors"
	"agendazap/pkg/config"
	"agendazap/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const StateCollectionName = "ConversationStates"

// StateRepository persists one conversation document per phone number. The
// phone is the primary key, so "no document" doubles as the machine's
// implicit initial state.
type StateRepository interface {
	Get(ctx context.Context, phone string) (*model.ConversationState, error)
	Save(ctx context.Context, state *model.ConversationState) error
	Delete(ctx context.Context, phone string) error
}

type mongoStateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoStateRepository(cfg *config.Config) StateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStateRepository{
		cfg:        cfg,
		collection: db.Collection(StateCollectionName),
	}
}

func (r *mongoStateRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoStateRepository) Get(ctx context.Context, phone string) (*model.ConversationState, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var state model.ConversationState
	err := r.collection.FindOne(ctx, bson.M{"_id": phone}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schedulingerrors.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	return &state, nil
}

func (r *mongoStateRepository) Save(ctx context.Context, state *model.ConversationState) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	state.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": state.Phone}, state, opts); err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

func (r *mongoStateRepository) Delete(ctx context.Context, phone string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": phone})
	if err != nil {
		return fmt.Errorf("failed to delete conversation state: %w", err)
	}
	if result.DeletedCount == 0 {
		return schedulingerrors.ErrStateNotFound
	}
	return nil
}
