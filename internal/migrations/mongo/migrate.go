package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habla/internal/migrations/mongo/validators"
)

// toolExecutionTTLSeconds keeps the audit trail for 90 days.
const toolExecutionTTLSeconds = 90 * 24 * 3600

var (
	HoldsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "branch_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "slot_start", Value: 1},
			{Key: "slot_end", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "customer_phone", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}

	// The TTL index reaps advisory locks leaked by crashed writers.
	HoldLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "confirmation_code", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "branch_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "customer_phone", Value: 1},
			{Key: "start_time", Value: -1},
		}},
	}

	TrustProfilesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "customer_phone", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "lead_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	TrustAdjustmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "customer_phone", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	BookingPoliciesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "vertical", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	ToolExecutionsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "call_id", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(toolExecutionTTLSeconds),
		},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running Habla Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Holds": {
			Indexes:   HoldsIndexes,
			Validator: validators.HoldValidator,
		},
		"Hold_locks": {
			Indexes: HoldLocksIndexes,
		},
		"Bookings": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		"Trust_profiles": {
			Indexes:   TrustProfilesIndexes,
			Validator: validators.TrustProfileValidator,
		},
		"Trust_adjustments": {
			Indexes:   TrustAdjustmentsIndexes,
			Validator: validators.TrustAdjustmentValidator,
		},
		"Booking_policies": {
			Indexes: BookingPoliciesIndexes,
		},
		"Tenants": {},
		"Tool_executions": {
			Indexes: ToolExecutionsIndexes,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts = opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}

	fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
