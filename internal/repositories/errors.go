package repositories

import "errors"

var (
	// ErrProductNotFound is returned when no product exists for the given id.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateCode is returned when an insert or update violates the
	// unique constraint on the product code.
	ErrDuplicateCode = errors.New("product code already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)
