package events

import (
	"context"
	"time"

	"habla/pkg/kafka"
	"habla/pkg/logger"
	"habla/pkg/model"

	"github.com/google/uuid"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Publisher serializes domain events onto the assistant's topics. Keys are
// chosen so every event for one booking flow lands on the same partition.
type Publisher struct {
	bookings   Producer
	executions Producer
	source     string
	log        *logger.Logger
}

func NewPublisher(bookings, executions Producer, source string, log *logger.Logger) *Publisher {
	return &Publisher{
		bookings:   bookings,
		executions: executions,
		source:     source,
		log:        log,
	}
}

func (p *Publisher) publish(ctx context.Context, producer Producer, eventType, key string, payload any) error {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventID(uuid.NewString()).
		WithEventType(eventType).
		WithSource(p.source).
		Build()
	return producer.Publish(ctx, msg)
}

func (p *Publisher) HoldCreated(ctx context.Context, hold *model.Hold) error {
	return p.holdEvent(ctx, TypeHoldCreated, hold, "", "")
}

func (p *Publisher) HoldReleased(ctx context.Context, hold *model.Hold, reason string) error {
	return p.holdEvent(ctx, TypeHoldReleased, hold, reason, "")
}

func (p *Publisher) HoldExpired(ctx context.Context, hold *model.Hold) error {
	return p.holdEvent(ctx, TypeHoldExpired, hold, "", "")
}

func (p *Publisher) HoldConverted(ctx context.Context, hold *model.Hold, bookingID string) error {
	return p.holdEvent(ctx, TypeHoldConverted, hold, "", bookingID)
}

func (p *Publisher) holdEvent(ctx context.Context, eventType string, hold *model.Hold, reason, bookingID string) error {
	event := HoldEvent{
		HoldID:        hold.ID,
		TenantID:      hold.TenantID,
		BranchID:      hold.BranchID,
		CustomerPhone: hold.CustomerPhone,
		HoldType:      hold.HoldType,
		SlotStart:     hold.SlotStart,
		SlotEnd:       hold.SlotEnd,
		Status:        hold.Status,
		Reason:        reason,
		BookingID:     bookingID,
		OccurredAt:    time.Now().UTC(),
	}
	return p.publish(ctx, p.bookings, eventType, hold.TenantID+":"+hold.CustomerPhone, event)
}

// BookingConfirmed emits the confirmation event carrying the trust delta the
// trust worker applies. The reference id keys the idempotent adjustment.
func (p *Publisher) BookingConfirmed(ctx context.Context, booking *model.Booking, trustDelta int, referenceID string) error {
	event := BookingEvent{
		BookingID:        booking.ID,
		TenantID:         booking.TenantID,
		BranchID:         booking.BranchID,
		CustomerPhone:    booking.CustomerPhone,
		BookingType:      booking.BookingType,
		Vertical:         booking.Vertical,
		ConfirmationCode: booking.ConfirmationCode,
		HoldID:           booking.HoldID,
		TrustDelta:       trustDelta,
		ReferenceID:      referenceID,
		OccurredAt:       time.Now().UTC(),
	}
	return p.publish(ctx, p.bookings, TypeBookingConfirmed, booking.TenantID+":"+booking.CustomerPhone, event)
}

func (p *Publisher) BookingCancelled(ctx context.Context, booking *model.Booking, trustDelta int, referenceID string) error {
	event := BookingEvent{
		BookingID:     booking.ID,
		TenantID:      booking.TenantID,
		BranchID:      booking.BranchID,
		CustomerPhone: booking.CustomerPhone,
		BookingType:   booking.BookingType,
		Vertical:      booking.Vertical,
		HoldID:        booking.HoldID,
		TrustDelta:    trustDelta,
		ReferenceID:   referenceID,
		OccurredAt:    time.Now().UTC(),
	}
	return p.publish(ctx, p.bookings, TypeBookingCancelled, booking.TenantID+":"+booking.CustomerPhone, event)
}

// ToolExecuted satisfies the executor's EventPublisher.
func (p *Publisher) ToolExecuted(ctx context.Context, entry *model.ToolExecution) error {
	event := ToolExecutedEvent{
		ToolName:   entry.ToolName,
		TenantID:   entry.TenantID,
		CallID:     entry.CallID,
		Channel:    entry.Channel,
		DurationMS: entry.DurationMS,
		Success:    entry.Success,
		ErrorCode:  entry.ErrorCode,
		OccurredAt: time.Now().UTC(),
	}
	msg := kafka.NewMessage().
		WithKey(entry.TenantID).
		WithValue(event).
		WithEventID(uuid.NewString()).
		WithEventType(TypeToolExecuted).
		WithCallID(entry.CallID).
		WithSource(p.source).
		Build()
	return p.executions.Publish(ctx, msg)
}
