package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Revoked("invite WZXK... was revoked by an officer")

	assert.True(t, Is(err, ErrRevoked))
	assert.False(t, Is(err, ErrExpired))

	wrapped := fmt.Errorf("redeem: %w", err)
	assert.True(t, Is(wrapped, ErrRevoked))
	assert.Equal(t, CodeRevoked, CodeOf(wrapped))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeInvalidCode, http.StatusNotFound},
		{CodeDuplicate, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeRevoked, http.StatusGone},
		{CodeExpired, http.StatusGone},
		{CodeExhaustedUses, http.StatusGone},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCode_Retryable(t *testing.T) {
	assert.True(t, CodeConflict.Retryable())
	assert.True(t, CodeRateLimited.Retryable())
	assert.False(t, CodeNotFound.Retryable())
	assert.False(t, CodeValidation.Retryable())
	assert.False(t, CodeExhaustedUses.Retryable())
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := Wrap(cause, CodeConflict, "concurrent update")

	assert.Equal(t, "concurrent update: database is locked", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrConflict))
}
