package services

import (
	"fmt"
	"strings"

	"shop/internal/repositories"
)

// ErrProductNotFound signals that the requested product id does not exist.
// It is the repository sentinel so errors.Is works across both layers.
var ErrProductNotFound = repositories.ErrProductNotFound

// ValidationError carries every input-constraint violation found on create,
// not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "product validation failed: " + strings.Join(e.Violations, ", ")
}

// InternalError wraps an unexpected failure (store unavailable, mapping
// failure) so the API layer can map it to a generic status without leaking
// internals.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
