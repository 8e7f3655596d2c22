// Package policies resolves the per (tenant, vertical) booking friction
// configuration.
package policies

import (
	"context"
	"errors"
	"fmt"

	"habla/pkg/config"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Booking_policies"

// Default thresholds applied when a tenant has not configured a policy.
// Restaurants run lower friction: walk-in culture tolerates more no-shows.
const (
	DefaultConfirmationThreshold = 80
	DefaultDepositThreshold      = 30

	RestaurantConfirmationThreshold = 75
	RestaurantDepositThreshold      = 25

	DefaultDepositAmount = 20.0

	VerticalRestaurant = "restaurant"
)

var ErrNotFound = errors.New("booking policy not found")

type Repository interface {
	FindByTenantAndVertical(ctx context.Context, tenantID, vertical string) (*model.BookingPolicy, error)
}

// Resolver returns the applicable policy, synthesizing vertical defaults
// when none is configured. Resolve never fails on a missing policy.
type Resolver interface {
	Resolve(ctx context.Context, tenantID, vertical string) (*model.BookingPolicy, error)
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

func (r *mongoRepository) FindByTenantAndVertical(ctx context.Context, tenantID, vertical string) (*model.BookingPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "vertical": vertical}

	var policy model.BookingPolicy
	err := r.collection.FindOne(ctx, filter).Decode(&policy)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking policy: %w", err)
	}
	return &policy, nil
}

type resolver struct {
	repo Repository
	cfg  *config.Config
}

func NewResolver(repo Repository, cfg *config.Config) Resolver {
	return &resolver{repo: repo, cfg: cfg}
}

// Resolve looks up the configured policy and falls back to vertical defaults
// when none exists. Store failures other than not-found are returned so the
// caller can decide whether to degrade.
func (r *resolver) Resolve(ctx context.Context, tenantID, vertical string) (*model.BookingPolicy, error) {
	policy, err := r.repo.FindByTenantAndVertical(ctx, tenantID, vertical)
	if err == nil {
		if policy.HoldDurationMinutes <= 0 {
			policy.HoldDurationMinutes = r.cfg.HoldDurationMin
		}
		return policy, nil
	}
	if errors.Is(err, ErrNotFound) {
		return DefaultPolicy(tenantID, vertical, r.cfg.HoldDurationMin), nil
	}
	return nil, err
}

// DefaultPolicy builds the documented fallback for an unconfigured
// (tenant, vertical) pair.
func DefaultPolicy(tenantID, vertical string, holdDurationMin int) *model.BookingPolicy {
	confirmation, deposit := DefaultConfirmationThreshold, DefaultDepositThreshold
	if vertical == VerticalRestaurant {
		confirmation, deposit = RestaurantConfirmationThreshold, RestaurantDepositThreshold
	}
	return &model.BookingPolicy{
		TenantID:              tenantID,
		Vertical:              vertical,
		ConfirmationThreshold: confirmation,
		DepositThreshold:      deposit,
		DepositAmount:         DefaultDepositAmount,
		HoldDurationMinutes:   holdDurationMin,
		ConfirmationEnabled:   true,
		DepositEnabled:        true,
	}
}
