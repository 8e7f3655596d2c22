package repository

import (
	"context"
	"time"

	"habla/pkg/config"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HoldLockRepository provides the advisory locks used by the fallback
// check-then-insert path. A TTL index on expires_at reaps locks leaked by
// crashed callers.
type HoldLockRepository interface {
	Create(ctx context.Context, lock *model.HoldLock) (*model.HoldLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoHoldLockRepository struct {
	collection *mongo.Collection
}

func NewHoldLockRepository(cfg *config.Config) HoldLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldLockRepository{
		collection: db.Collection("Hold_locks"),
	}
}

// Returns duplicate key error if the lock already exists.
func (r *mongoHoldLockRepository) Create(ctx context.Context, lock *model.HoldLock) (*model.HoldLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoHoldLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
