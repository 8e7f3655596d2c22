package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("hold not found")

	ErrSlotHeld = errors.New("slot already held")

	ErrSlotBooked = errors.New("slot already booked")

	ErrSlotInPast = errors.New("slot start must be in the future")

	ErrExpired = errors.New("hold has expired")

	ErrAlreadyConverted = errors.New("hold already converted")

	ErrAlreadyReleased = errors.New("hold already released")

	ErrCustomerBlocked = errors.New("customer is blocked")
)

// DepositRequiredError carries the deposit amount so the caller can present
// a payment request.
type DepositRequiredError struct {
	Amount float64
}

func (e *DepositRequiredError) Error() string {
	return fmt.Sprintf("deposit of %.2f required before conversion", e.Amount)
}
