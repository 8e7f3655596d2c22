package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrAlreadyCancelled = errors.New("booking already cancelled")

	ErrDuplicateCode = errors.New("confirmation code already in use")

	ErrTimeConflict = errors.New("booking time conflicts with an existing booking")
)
