package errors

import (
	"errors"
	"fmt"
)

// Booking failure kinds. Handlers translate these into HTTP statuses.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSeatConflict     = errors.New("seat already taken")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// SeatConflictError names the seat that could not be claimed.
type SeatConflictError struct {
	SessionID int64
	Row       int
	Col       int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat already taken: session %d r%dc%d", e.SessionID, e.Row, e.Col)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

// RequestError carries a caller-facing reason and matches ErrInvalidRequest.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return ErrInvalidRequest.Error() + ": " + e.Reason
}

func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func InvalidRequest(reason string) error {
	return &RequestError{Reason: reason}
}

// StoreUnavailable keeps the underlying cause for logs while matching
// ErrStoreUnavailable.
func StoreUnavailable(op string, cause error) error {
	return &storeError{op: op, cause: cause}
}

type storeError struct {
	op    string
	cause error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.op, e.cause)
}

func (e *storeError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *storeError) Unwrap() error {
	return e.cause
}
