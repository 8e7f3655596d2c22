// Package audit persists the per-invocation tool execution log.
package audit

import (
	"context"
	"fmt"
	"time"

	"habla/pkg/config"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Tool_executions"

type Repository interface {
	Record(ctx context.Context, entry *model.ToolExecution) error
	FindByCallID(ctx context.Context, tenantID, callID string) ([]*model.ToolExecution, error)
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

func (r *mongoRepository) Record(ctx context.Context, entry *model.ToolExecution) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record tool execution: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByCallID(ctx context.Context, tenantID, callID string) ([]*model.ToolExecution, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "call_id": callID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tool executions: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.ToolExecution
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode tool executions: %w", err)
	}
	return entries, nil
}
