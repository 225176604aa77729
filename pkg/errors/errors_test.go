package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrQuotaExceeded, "primary quota reached")
	assert.True(t, stdErrors.Is(err, ErrQuotaExceeded))
	assert.False(t, stdErrors.Is(err, ErrSeatUnavailable))
	assert.Equal(t, "primary quota reached", err.Message)
	assert.Equal(t, "course selection quota exceeded", ErrQuotaExceeded.Message)
}

func TestWithDetailsCopiesMap(t *testing.T) {
	details := map[string]interface{}{"tier": "primary", "limit": 4}
	err := WithDetails(ErrQuotaExceeded, "", details)
	details["tier"] = "secondary"

	require.NotNil(t, err.Details)
	assert.Equal(t, "primary", err.Details["tier"])
	assert.Nil(t, ErrQuotaExceeded.Details)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotRegistered, ""))
	assert.Equal(t, ErrNotRegistered.Code, FromError(wrapped).Code)

	internal := FromError(stdErrors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Contains(t, internal.Error(), "connection reset")
}
