package domainerrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fowlgate/pkg/domain-errors"
)

func TestCodedErrors(t *testing.T) {
	t.Run("New carries the code and message", func(t *testing.T) {
		err := dErrors.New(dErrors.CodeNotFound, "transfer not found")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.EqualError(t, err, "not_found: transfer not found")
	})

	t.Run("Newf formats the message", func(t *testing.T) {
		err := dErrors.Newf(dErrors.CodeOwnership, "caller %s does not own the fowl", "abc")
		assert.EqualError(t, err, "not_owner: caller abc does not own the fowl")
	})

	t.Run("Wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := dErrors.Wrap(cause, dErrors.CodeInternal, "store unavailable")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, dErrors.Wrap(nil, dErrors.CodeInternal, "unused"))
	})

	t.Run("coded error survives fmt wrapping", func(t *testing.T) {
		inner := dErrors.New(dErrors.CodeDuplicateTransfer, "fowl already under transfer")
		outer := fmt.Errorf("initiate: %w", inner)
		assert.True(t, dErrors.HasCode(outer, dErrors.CodeDuplicateTransfer))
		assert.Equal(t, dErrors.CodeDuplicateTransfer, dErrors.CodeOf(outer))
	})

	t.Run("CodeOf defaults uncoded errors to internal", func(t *testing.T) {
		assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(errors.New("plain")))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeInvalidInput:       http.StatusBadRequest,
		dErrors.CodeValidation:         http.StatusBadRequest,
		dErrors.CodeBadRequest:         http.StatusBadRequest,
		dErrors.CodeUnauthorized:       http.StatusUnauthorized,
		dErrors.CodeForbidden:          http.StatusForbidden,
		dErrors.CodeOwnership:          http.StatusForbidden,
		dErrors.CodeNotFound:           http.StatusNotFound,
		dErrors.CodeConflict:           http.StatusConflict,
		dErrors.CodeDuplicateTransfer:  http.StatusConflict,
		dErrors.CodeInvariantViolation: http.StatusConflict,
		dErrors.CodePartialCompletion:  http.StatusInternalServerError,
		dErrors.CodeInternal:           http.StatusInternalServerError,
		dErrors.Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, dErrors.ToHTTPStatus(code), "code %s", code)
	}
}
