package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	holdserrors "habla/internal/holds/errors"
	"habla/pkg/config"
	mongotx "habla/pkg/db/mongo"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName        = "Holds"
	BookingCollectionName = "Bookings"

	// DefaultMaxDayFetch bounds the single-query batch fetch used by slot
	// enumeration.
	DefaultMaxDayFetch = config.DefaultMaxHoldsPerDayFetch
)

type HoldRepository interface {
	Create(ctx context.Context, hold *model.Hold) error
	FindByID(ctx context.Context, tenantID, id string) (*model.Hold, error)

	// FindActiveOverlapping returns active, unexpired holds whose interval
	// intersects [start, end) on the same tenant/branch. When staffID is
	// set only holds for that staff member conflict.
	FindActiveOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Hold, error)

	// FindActiveByDay batch-fetches every active hold touching [dayStart,
	// dayEnd) in one query, for slot enumeration.
	FindActiveByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Hold, error)

	// FindConfirmedBookingsOverlapping is the booking side of the conflict
	// check, using the same overlap predicate.
	FindConfirmedBookingsOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Booking, error)
	FindConfirmedBookingsByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Booking, error)

	// MarkExpired transitions an active hold to expired. Lazy expiry: read
	// paths call this when they observe expires_at in the past.
	MarkExpired(ctx context.Context, tenantID, id string) error

	// Release transitions an active hold to released. Reports false when
	// the hold was not active, with no mutation.
	Release(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error)

	// MarkConverted transitions an active hold to converted with a pointer
	// to the created booking. Reports false when the hold was not active.
	MarkConverted(ctx context.Context, tenantID, id, bookingID string, at time.Time) (bool, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		bookings:   db.Collection(BookingCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, where wrapping a SessionContext would break its semantics.
func (r *mongoHoldRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.Hold) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.collection.InsertOne(ctx, hold); err != nil {
		return fmt.Errorf("failed to create hold: %w", err)
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID}

	var hold model.Hold
	err := r.collection.FindOne(ctx, filter).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}
	return &hold, nil
}

func (r *mongoHoldRepository) FindActiveOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.activeFilter(tenantID, branchID, start, end)
	if staffID != "" {
		filter["$or"] = []bson.M{
			{"staff_id": staffID},
			{"staff_id": bson.M{"$in": bson.A{nil, ""}}},
		}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.Hold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode holds: %w", err)
	}
	return holds, nil
}

func (r *mongoHoldRepository) FindActiveByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Hold, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.activeFilter(tenantID, branchID, dayStart, dayEnd)
	opts := options.Find().
		SetSort(bson.D{{Key: "slot_start", Value: 1}}).
		SetLimit(int64(DefaultMaxDayFetch))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find holds for day: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.Hold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode holds: %w", err)
	}
	return holds, nil
}

// activeFilter matches holds whose interval intersects [start, end) using
// slot_start < end AND slot_end > start, the shared overlap predicate.
// Expiry is re-validated against the clock, not the stored status, because
// nothing actively sweeps expired holds.
func (r *mongoHoldRepository) activeFilter(tenantID, branchID string, start, end time.Time) bson.M {
	filter := bson.M{
		"tenant_id":  tenantID,
		"status":     model.HoldStatusActive,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
		"slot_start": bson.M{"$lt": end},
		"slot_end":   bson.M{"$gt": start},
	}
	if branchID != "" {
		filter["branch_id"] = branchID
	}
	return filter
}

func (r *mongoHoldRepository) FindConfirmedBookingsOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.confirmedFilter(tenantID, branchID, start, end)
	if staffID != "" {
		filter["$or"] = []bson.M{
			{"staff_id": staffID},
			{"staff_id": bson.M{"$in": bson.A{nil, ""}}},
		}
	}

	cursor, err := r.bookings.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoHoldRepository) FindConfirmedBookingsByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.confirmedFilter(tenantID, branchID, dayStart, dayEnd)
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(DefaultMaxDayFetch))

	cursor, err := r.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings for day: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoHoldRepository) confirmedFilter(tenantID, branchID string, start, end time.Time) bson.M {
	filter := bson.M{
		"tenant_id":  tenantID,
		"status":     model.BookingStatusConfirmed,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
	if branchID != "" {
		filter["branch_id"] = branchID
	}
	return filter
}

func (r *mongoHoldRepository) MarkExpired(ctx context.Context, tenantID, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID, "status": model.HoldStatusActive}
	update := bson.M{"$set": bson.M{"status": model.HoldStatusExpired}}

	// MatchedCount 0 means another reader already expired it, which is fine.
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark hold expired: %w", err)
	}
	return nil
}

func (r *mongoHoldRepository) Release(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID, "status": model.HoldStatusActive}
	update := bson.M{"$set": bson.M{
		"status":         model.HoldStatusReleased,
		"released_at":    at,
		"release_reason": reason,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to release hold: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoHoldRepository) MarkConverted(ctx context.Context, tenantID, id, bookingID string, at time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID, "status": model.HoldStatusActive}
	update := bson.M{"$set": bson.M{
		"status":       model.HoldStatusConverted,
		"converted_at": at,
		"booking_id":   bookingID,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark hold converted: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
