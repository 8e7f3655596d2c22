// Package tenants is the read side of the tenant registry: assistant type,
// vertical, timezone and opening hours per business.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"habla/pkg/config"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Tenants"

var ErrNotFound = errors.New("tenant not found")

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

type mongoRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.Config) Repository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tenant model.Tenant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}
