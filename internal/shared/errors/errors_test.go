package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "name").WithComponent("test-component")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "test-component", err.Component)
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := ErrNotFound
	err := NewNotFoundError("resource").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	assert.Nil(t, ve.ToAppError())

	ve.Add("field1", "must be set", "")
	assert.True(t, ve.HasErrors())
	appErr := ve.ToAppError()
	assert.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "validation failed: must be set", appErr.Message)
}

func TestStoreUnavailableError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailableError("failed to list products", cause)

	assert.True(t, IsStoreUnavailable(err))
	assert.False(t, IsWriteFailed(err))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
	assert.Equal(t, CodeStoreUnavailable, Code(err))
}

func TestWriteFailedError(t *testing.T) {
	err := NewWriteFailedError("failed to add category", nil)

	assert.True(t, IsWriteFailed(err))
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
	assert.Equal(t, CodeWriteFailed, Code(err))
}

func TestHTTPStatusAndCode_Defaults(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(plain))
	assert.Equal(t, CodeInternal, Code(plain))

	wrapped := fmt.Errorf("handler: %w", NewAuthenticationError("bad password"))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(wrapped))
	assert.Equal(t, CodeAuthFailed, Code(wrapped))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("doc")))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsAuthentication(ErrInvalidCredentials))
	assert.True(t, IsAuthentication(NewAuthenticationError("nope")))
	assert.True(t, IsConflict(NewConflictError("dup")))
	assert.True(t, IsConflict(ErrConflict))
	assert.False(t, IsConflict(errors.New("other")))
}

func TestWrapError(t *testing.T) {
	appErr := NewConflictError("dup")
	assert.Same(t, appErr, WrapError(appErr, "ignored"))

	wrapped := WrapError(errors.New("io"), "failed")
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.Equal(t, "failed: io", wrapped.Error())
}
