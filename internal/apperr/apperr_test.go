package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatchingAcrossWrapping(t *testing.T) {
	err := fmt.Errorf("replay entry 3: %w", InsufficientStock("insufficient stock for Congrio"))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestKindsAreDistinct(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{NotFound("product p1"), ErrNotFound},
		{InvalidInput("quantity must be positive"), ErrInvalidInput},
		{InsufficientStock("available 2, requested 4"), ErrInsufficientStock},
		{RemoteUnavailable(errors.New("dial tcp: refused"), "GET /api/products"), ErrRemoteUnavailable},
		{ConflictOnReplay("stock changed under us"), ErrConflictOnReplay},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		for _, other := range cases {
			if other.sentinel != tc.sentinel {
				assert.NotErrorIs(t, tc.err, other.sentinel)
			}
		}
	}
}

func TestRemoteUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := RemoteUnavailable(cause, "POST /api/dispatches")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
