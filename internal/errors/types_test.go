package errors

import (
	stderrors "errors"
	"testing"

	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	err := New(ErrCodeValidationFailed, "body too long")
	assert.Equal(t, "VALIDATION_FAILED: body too long", err.Error())

	cause := stderrors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeTransport, "send failed")
	assert.Equal(t, "TRANSPORT: send failed: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "gone")))
	assert.Equal(t, ErrCodeInternalError, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInternalError, GetCode(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(stderrors.New("x"), ErrCodeTransport, "y")))
	assert.False(t, IsRetryable(New(ErrCodeValidationFailed, "x")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("message", "m1")))
	assert.False(t, IsNotFound(New(ErrCodeTransport, "x")))
	assert.False(t, IsNotFound(nil))
}

func TestGetUserMessage(t *testing.T) {
	err := New(ErrCodeTransport, "raw detail").WithUserMessage("Connection problem")
	assert.Equal(t, "Connection problem", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(stderrors.New("plain")))
}

func TestTransportErrorRetryability(t *testing.T) {
	tests := []struct {
		statusCode    int
		wantRetryable bool
	}{
		{statusCode: 0, wantRetryable: true},
		{statusCode: 408, wantRetryable: true},
		{statusCode: 429, wantRetryable: true},
		{statusCode: 500, wantRetryable: true},
		{statusCode: 502, wantRetryable: true},
		{statusCode: 400, wantRetryable: false},
		{statusCode: 403, wantRetryable: false},
		{statusCode: 404, wantRetryable: false},
	}

	for _, tt := range tests {
		err := NewTransportError("send", tt.statusCode, stderrors.New("x"))
		assert.Equal(t, tt.wantRetryable, IsRetryable(err), "status %d", tt.statusCode)
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	err := NewValidationError("body", "cannot be empty")
	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.Equal(t, "body", err.Context["field"])
	assert.Contains(t, err.UserMessage, "body")
}

func TestDeviceErrorCategories(t *testing.T) {
	cause := stderrors.New("no such device")

	denied := NewDeviceError(models.DevicePermissionDenied, cause)
	assert.Contains(t, denied.UserMessage, "denied")
	assert.Equal(t, models.DevicePermissionDenied, DeviceCategory(denied))

	missing := NewDeviceError(models.DeviceNotFound, cause)
	assert.Equal(t, models.DeviceNotFound, DeviceCategory(missing))

	assert.Equal(t, models.DeviceUnknown, DeviceCategory(cause))
	assert.Equal(t, models.DeviceUnknown, DeviceCategory(New(ErrCodeDevice, "no context")))
}

func TestWithContextAccumulates(t *testing.T) {
	err := New(ErrCodeDatabaseQuery, "query failed").
		WithContext("operation", "save").
		WithContext("room_id", "room-1")

	require.NotNil(t, err.Context)
	assert.Equal(t, "save", err.Context["operation"])
	assert.Equal(t, "room-1", err.Context["room_id"])
}
