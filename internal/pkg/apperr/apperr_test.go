package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesCopiesWithDetails(t *testing.T) {
	err := Validation(map[string]string{"contact": "required"})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAs_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", ErrInvalidTransition)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInvalidTransition, e.Kind)
	assert.Equal(t, http.StatusConflict, HTTPStatus(e.Kind))
}

func TestAs_DeadlineIsRetryableIO(t *testing.T) {
	e, ok := As(fmt.Errorf("query: %w", context.DeadlineExceeded))
	require.True(t, ok)
	assert.Equal(t, KindIO, e.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(e.Kind))
	assert.Equal(t, map[string]any{"retryable": true}, e.Details)
	assert.ErrorIs(t, e, context.DeadlineExceeded)
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
