package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput,
		ErrUnauthorized, ErrForbidden, ErrInternal,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "Product with x not found"}
	assert.Equal(t, "NOT_FOUND: Product with x not found", appErr.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("db down")}
	assert.Contains(t, wrapped.Error(), "db down")
}

func TestNotFound_MessageNamesKey(t *testing.T) {
	err := NotFound("product", "t-shirt-teslo")
	require.NotNil(t, err)
	assert.Equal(t, "Product with t-shirt-teslo not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFound_CapitalizesResource(t *testing.T) {
	assert.Equal(t, "Product with abc not found", NotFound("product", "abc").Message)
	assert.Equal(t, "Product with abc not found", NotFound("Product", "abc").Message)
	assert.Equal(t, " with abc not found", NotFound("", "abc").Message)
}

func TestConflict_KeepsDetailVerbatim(t *testing.T) {
	detail := `Key (slug)=(kids_tee) already exists.`
	err := Conflict(detail)
	assert.Equal(t, detail, err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection reset by peer")
	err := Internal(cause)

	assert.Equal(t, InternalMessage, err.Message)
	assert.NotContains(t, err.Message, "connection reset")
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app not found", NotFound("product", "1"), http.StatusNotFound},
		{"app conflict", Conflict("dup"), http.StatusConflict},
		{"app forbidden", Forbidden("no"), http.StatusForbidden},
		{"wrapped sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"bare unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"bare invalid", ErrInvalidInput, http.StatusBadRequest},
		{"unknown", errors.New("weird"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
