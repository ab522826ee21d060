package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatConflictErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("claim: %w", &SeatConflictError{SessionID: 7, Row: 3, Col: 12})

	assert.True(t, errors.Is(err, ErrSeatConflict))
	assert.False(t, errors.Is(err, ErrInvalidRequest))

	var conflict *SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(7), conflict.SessionID)
	assert.Contains(t, err.Error(), "r3c12")
}

func TestInvalidRequestKeepsReason(t *testing.T) {
	err := InvalidRequest("No items")

	assert.True(t, errors.Is(err, ErrInvalidRequest))

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "No items", reqErr.Reason)
}

func TestStoreUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailable("place order", cause)

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "place order")
	assert.False(t, errors.Is(err, ErrSeatConflict))
}
