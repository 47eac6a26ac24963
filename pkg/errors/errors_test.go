package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	err := NewAppError(NotFoundErrorCode, "сессия не найдена", ErrSessionNotFound, true)
	assert.Equal(t, "сессия не найдена (code: 404): session not found", err.Error())
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	bare := NewAppError(ConflictErrorCode, Conflict, nil, false)
	assert.Equal(t, "conflict (code: 409)", bare.Error())

	var nilErr *AppError
	assert.Equal(t, "", nilErr.Error())
}

func TestAsFindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("scan: %w", NewAppError(UnavailableErrorCode, Unavailable, nil, false))
	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, UnavailableErrorCode, appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
