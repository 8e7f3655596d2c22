package errors

import "errors"

var (
	ErrProfileNotFound = errors.New("trust profile not found")

	ErrDuplicateAdjustment = errors.New("trust adjustment already applied")
)
