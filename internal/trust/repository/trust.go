package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trusterrors "habla/internal/trust/errors"
	"habla/pkg/config"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProfileCollectionName    = "Trust_profiles"
	AdjustmentCollectionName = "Trust_adjustments"
)

type TrustRepository interface {
	FindProfileByPhone(ctx context.Context, tenantID, phone string) (*model.TrustProfile, error)
	FindProfileByLead(ctx context.Context, tenantID, leadID string) (*model.TrustProfile, error)

	// ApplyAdjustment records the adjustment and moves the profile score by
	// its delta, clamped to 0-100. The adjustment's reference id is the
	// document _id; a redelivered reference hits the unique index and the
	// call reports applied=false with no score change.
	ApplyAdjustment(ctx context.Context, adj *model.TrustAdjustment) (applied bool, err error)
}

type mongoTrustRepository struct {
	cfg         *config.Config
	profiles    *mongo.Collection
	adjustments *mongo.Collection
}

func NewMongoTrustRepository(cfg *config.Config) TrustRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTrustRepository{
		cfg:         cfg,
		profiles:    db.Collection(ProfileCollectionName),
		adjustments: db.Collection(AdjustmentCollectionName),
	}
}

func (r *mongoTrustRepository) FindProfileByPhone(ctx context.Context, tenantID, phone string) (*model.TrustProfile, error) {
	return r.findProfile(ctx, bson.M{"tenant_id": tenantID, "customer_phone": phone})
}

func (r *mongoTrustRepository) FindProfileByLead(ctx context.Context, tenantID, leadID string) (*model.TrustProfile, error) {
	return r.findProfile(ctx, bson.M{"tenant_id": tenantID, "lead_id": leadID})
}

func (r *mongoTrustRepository) findProfile(ctx context.Context, filter bson.M) (*model.TrustProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var profile model.TrustProfile
	err := r.profiles.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trusterrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find trust profile: %w", err)
	}
	return &profile, nil
}

func (r *mongoTrustRepository) ApplyAdjustment(ctx context.Context, adj *model.TrustAdjustment) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	adj.CreatedAt = time.Now().UTC()
	if _, err := r.adjustments.InsertOne(ctx, adj); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record trust adjustment: %w", err)
	}

	if err := r.applyDelta(ctx, adj); err != nil {
		return false, err
	}
	return true, nil
}

// applyDelta moves the profile score inside the store so concurrent deltas
// compose. Missing profiles are upserted at the default score first.
func (r *mongoTrustRepository) applyDelta(ctx context.Context, adj *model.TrustAdjustment) error {
	now := time.Now().UTC()
	filter := bson.M{"tenant_id": adj.TenantID, "customer_phone": adj.CustomerPhone}

	counterField := "completed_count"
	if adj.Delta < 0 {
		counterField = "no_show_count"
	}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"tenant_id":      adj.TenantID,
			"customer_phone": adj.CustomerPhone,
			"score": bson.M{"$max": bson.A{0, bson.M{"$min": bson.A{100,
				bson.M{"$add": bson.A{
					bson.M{"$ifNull": bson.A{"$score", model.DefaultTrustScore}},
					adj.Delta,
				}},
			}}}},
			counterField: bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$" + counterField, 0}}, 1,
			}},
			"created_at": bson.M{"$ifNull": bson.A{"$created_at", now}},
			"updated_at": now,
		}}},
	}

	_, err := r.profiles.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to apply trust delta: %w", err)
	}
	return nil
}
