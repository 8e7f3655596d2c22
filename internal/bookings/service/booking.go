package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "habla/internal/bookings/errors"
	"habla/internal/bookings/repository"
	"habla/internal/bookings/validator"
	holdserrors "habla/internal/holds/errors"
	holdsrepository "habla/internal/holds/repository"
	"habla/pkg/config"
	"habla/pkg/confirmcode"
	apperrors "habla/pkg/errors"
	"habla/pkg/model"

	"github.com/google/uuid"
)

type BookingService interface {
	// CreateFromHold materializes an active hold into a booking, carrying
	// the hold's trust snapshot and a link back to the hold. The slot is
	// already exclusively claimed, so no overlap check runs here.
	CreateFromHold(ctx context.Context, hold *model.Hold, customerName string, depositPaid bool) (*model.Booking, error)

	// CreateDirect creates a booking without a prior hold, for customers
	// admitted with action proceed. The slot conflict check runs against
	// both active holds and confirmed bookings.
	CreateDirect(ctx context.Context, booking *model.Booking) (*model.Booking, error)

	GetByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error)
	CancelByConfirmationCode(ctx context.Context, tenantID, code, reason string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	holdRepo  holdsrepository.HoldRepository
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	holdRepo holdsrepository.HoldRepository,
	bookingValidator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		holdRepo:  holdRepo,
		validator: bookingValidator,
		cfg:       cfg,
	}
}

func (s *bookingService) CreateFromHold(ctx context.Context, hold *model.Hold, customerName string, depositPaid bool) (*model.Booking, error) {
	booking := &model.Booking{
		ID:            uuid.NewString(),
		TenantID:      hold.TenantID,
		BranchID:      hold.BranchID,
		BookingType:   hold.HoldType,
		CustomerPhone: hold.CustomerPhone,
		CustomerName:  customerName,
		LeadID:        hold.LeadID,
		ServiceID:     hold.ServiceID,
		StaffID:       hold.StaffID,
		Vertical:      hold.Vertical,
		StartTime:     hold.SlotStart,
		EndTime:       hold.SlotEnd,
		Status:        model.BookingStatusConfirmed,
		TrustScore:    hold.TrustScore,
		HoldID:        hold.ID,
		DepositPaid:   depositPaid,
		DepositAmount: hold.DepositAmount,
		Metadata:      hold.Metadata,
	}
	if customerName == "" {
		booking.CustomerName = hold.Metadata["customer_name"]
	}

	if err := s.insertWithCode(ctx, booking); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking created from hold",
		"booking_id", booking.ID,
		"hold_id", hold.ID,
		"tenant_id", booking.TenantID,
		"confirmation_code", booking.ConfirmationCode,
	)
	return booking, nil
}

func (s *bookingService) CreateDirect(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = model.BookingStatusConfirmed
	}

	if err := s.verifySlotFree(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.insertWithCode(ctx, booking); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"booking_id", booking.ID,
		"tenant_id", booking.TenantID,
		"start_time", booking.StartTime,
		"confirmation_code", booking.ConfirmationCode,
	)
	return booking, nil
}

// insertWithCode stamps a confirmation code and inserts. Code uniqueness is
// enforced by the index; one redraw covers the rare collision.
func (s *bookingService) insertWithCode(ctx context.Context, booking *model.Booking) error {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := confirmcode.GenerateFor(booking.BookingType)
		if err != nil {
			return apperrors.Internal("Failed to generate confirmation code", err)
		}
		booking.ConfirmationCode = code

		if err := s.validate(booking); err != nil {
			return err
		}

		err = s.repo.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if errors.Is(err, bookingserrors.ErrDuplicateCode) {
			s.cfg.Log.Warn("Confirmation code collision, redrawing",
				"tenant_id", booking.TenantID,
				"code", code,
			)
			continue
		}
		return apperrors.Internal("Failed to create booking", err)
	}
	return apperrors.Internal("Failed to create booking after code retry", bookingserrors.ErrDuplicateCode)
}

func (s *bookingService) verifySlotFree(ctx context.Context, booking *model.Booking) error {
	holds, err := s.holdRepo.FindActiveOverlapping(ctx, booking.TenantID, booking.BranchID, booking.StaffID, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check holds", err)
	}
	if len(holds) > 0 {
		return apperrors.Wrap(holdserrors.ErrSlotHeld, apperrors.CodeConflict, "Slot already held", 409)
	}

	existing, err := s.holdRepo.FindConfirmedBookingsOverlapping(ctx, booking.TenantID, booking.BranchID, booking.StaffID, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check bookings", err)
	}
	if len(existing) > 0 {
		return apperrors.Wrap(holdserrors.ErrSlotBooked, apperrors.CodeConflict, "Slot already booked", 409)
	}
	return nil
}

func (s *bookingService) GetByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("Confirmation code cannot be empty")
	}

	booking, err := s.repo.FindByConfirmationCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.Wrap(bookingserrors.ErrNotFound, apperrors.CodeNotFound, "Booking not found", 404)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) CancelByConfirmationCode(ctx context.Context, tenantID, code, reason string) (*model.Booking, error) {
	booking, err := s.GetByConfirmationCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.BookingStatusCancelled {
		return nil, apperrors.Wrap(bookingserrors.ErrAlreadyCancelled, apperrors.CodeConflict, "Booking is already cancelled", 409)
	}

	now := time.Now().UTC()
	cancelled, err := s.repo.Cancel(ctx, tenantID, booking.ID, reason, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if !cancelled {
		return nil, apperrors.Wrap(bookingserrors.ErrAlreadyCancelled, apperrors.CodeConflict, "Booking is already cancelled", 409)
	}

	booking.Status = model.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelReason = reason

	s.cfg.Log.Info("Booking cancelled",
		"booking_id", booking.ID,
		"tenant_id", tenantID,
		"reason", reason,
	)
	return booking, nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
