package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "habla/internal/bookings/errors"
	"habla/pkg/config"
	mongotx "habla/pkg/db/mongo"
	"habla/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Bookings"

type BookingRepository interface {
	// Create inserts the booking. A confirmation code collision surfaces
	// as ErrDuplicateCode so the service can redraw and retry.
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, tenantID, id string) (*model.Booking, error)
	FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error)
	FindByPhone(ctx context.Context, tenantID, phone string, limit int) ([]*model.Booking, error)

	// Cancel transitions a confirmed booking to cancelled. Reports false
	// when the booking was not confirmed, with no mutation.
	Cancel(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id, "tenant_id": tenantID})
}

func (r *mongoBookingRepository) FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"tenant_id": tenantID, "confirmation_code": code})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByPhone(ctx context.Context, tenantID, phone string, limit int) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "customer_phone": phone}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by phone: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID, "status": model.BookingStatusConfirmed}
	update := bson.M{"$set": bson.M{
		"status":        model.BookingStatusCancelled,
		"cancelled_at":  at,
		"cancel_reason": reason,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
