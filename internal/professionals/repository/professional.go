package repository

import (
	"context"
	"fmt"
	"time"

	professionalserrors "agendazap/internal/professionals/errors"
	"agendazap/pkg/config"
	"agendazap/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProfessionalCollectionName = "Professionals"

type ProfessionalRepository interface {
	Create(ctx context.Context, professional *model.Professional) error
	FindByID(ctx context.Context, id string) (*model.Professional, error)
	List(ctx context.Context) ([]*model.Professional, error)
	Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error
	SaveTokens(ctx context.Context, id string, tokens *model.ProfessionalTokens) error
	SoftDelete(ctx context.Context, id string) error
}

type mongoProfessionalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProfessionalRepository(cfg *config.Config) ProfessionalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfessionalRepository{
		cfg:        cfg,
		collection: db.Collection(ProfessionalCollectionName),
	}
}

func (r *mongoProfessionalRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProfessionalRepository) Create(ctx context.Context, professional *model.Professional) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	professional.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, professional)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		professional.ID = oid.Hex()
	}
	return nil
}

// FindByID returns the professional, including soft-deleted ones so that
// historical appointment references stay resolvable.
func (r *mongoProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	var professional model.Professional
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&professional); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, professionalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find professional: %w", err)
	}
	return &professional, nil
}

// List returns professionals that have not been soft-deleted.
func (r *mongoProfessionalRepository) List(ctx context.Context) ([]*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"deleted_at": bson.M{"$exists": false}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}
	defer cursor.Close(ctx)

	var professionals []*model.Professional
	if err = cursor.All(ctx, &professionals); err != nil {
		return nil, fmt.Errorf("failed to decode professionals: %w", err)
	}
	return professionals, nil
}

func (r *mongoProfessionalRepository) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if updates.Name != "" {
		set["name"] = updates.Name
	}
	if updates.Specialty != "" {
		set["specialty"] = updates.Specialty
	}
	if updates.CalendarID != "" {
		set["calendar_id"] = updates.CalendarID
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update professional: %w", err)
	}
	if result.MatchedCount == 0 {
		return professionalserrors.ErrNotFound
	}
	return nil
}

func (r *mongoProfessionalRepository) SaveTokens(ctx context.Context, id string, tokens *model.ProfessionalTokens) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"google_access_token": tokens.AccessToken,
		"token_expiry":        tokens.Expiry,
	}
	// A refresh token is only issued on the first consent; keep the stored
	// one when the exchange omits it.
	if tokens.RefreshToken != "" {
		set["google_refresh_token"] = tokens.RefreshToken
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to save professional tokens: %w", err)
	}
	if result.MatchedCount == 0 {
		return professionalserrors.ErrNotFound
	}
	return nil
}

func (r *mongoProfessionalRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{"deleted_at": time.Now().UTC().Truncate(time.Millisecond)}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to soft-delete professional: %w", err)
	}
	if result.MatchedCount == 0 {
		return professionalserrors.ErrNotFound
	}
	return nil
}
