package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"invalid input", NewInvalidInput("persons must be positive"), CodeInvalidInput},
		{"wrapped provider error", fmt.Errorf("search: %w", NewProviderUnavailable("makkah", nil)), CodeProviderUnavailable},
		{"plain error", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestSearchTimeout_UnwrapsDeadline(t *testing.T) {
	err := NewSearchTimeout(2*time.Second, context.DeadlineExceeded)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, Is(err, CodeSearchTimeout))
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "SEARCH_TIMEOUT")
}

func TestProviderUnavailable_Metadata(t *testing.T) {
	cause := errors.New("amadeus error (500)")
	err := NewProviderUnavailable("outbound", cause)

	assert.Equal(t, "outbound", err.Metadata["leg"])
	assert.Contains(t, err.Details, "amadeus error (500)")
	assert.ErrorIs(t, err, cause)
}

func TestWithMetadata_DoesNotMutateOriginal(t *testing.T) {
	orig := NewProviderUnavailable("return", nil)
	cp := orig.WithMetadata("lead_token", "umr_x")

	assert.Equal(t, "umr_x", cp.Metadata["lead_token"])
	_, ok := orig.Metadata["lead_token"]
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	require.Nil(t, Normalize(nil))

	n := Normalize(errors.New("pq: connection refused"))
	assert.Equal(t, CodeInternal, n.Code)
	assert.Equal(t, "Unexpected error", n.Message)

	in := NewNotFound("Search", "umr_1")
	assert.Same(t, in, Normalize(fmt.Errorf("lookup: %w", in)))
}
