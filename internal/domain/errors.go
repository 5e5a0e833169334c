package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the simulation error taxonomy. Handlers match on
// these with errors.Is to pick the HTTP status.
var (
	ErrNotFound        = errors.New("not found")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrValidation      = errors.New("validation failed")
)

// NotFoundError identifies a missing hotel, partner, room type or plan.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a malformed request field. It is raised before
// any snapshot access and always results in zero rows.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DataUnavailableError reports a snapshot load failure or timeout. The
// request may be retried by the caller; the engine never retries itself.
type DataUnavailableError struct {
	HotelID string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("snapshot for hotel %q unavailable: %v", e.HotelID, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return ErrDataUnavailable }
