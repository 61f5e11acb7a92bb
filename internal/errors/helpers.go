package errors

import (
	stderrors "errors"
	"fmt"

	"roomchat/internal/models"
)

// Common error creators for frequent use cases

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewDatabaseError creates a local database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Local cache operation failed")
}

// NewTransportError creates a transport error for backend calls. Server-side
// failures and throttling are retryable; everything else is not.
func NewTransportError(operation string, statusCode int, err error) *AppError {
	retryable := statusCode == 0 || statusCode >= 500 || statusCode == 429 || statusCode == 408

	appErr := Wrap(err, ErrCodeTransport, fmt.Sprintf("transport %s failed", operation)).
		WithContext("operation", operation).
		WithContext("status_code", statusCode).
		WithUserMessage("Connection problem, please try again")
	appErr.Retryable = retryable
	return appErr
}

// NewAuthorizationError creates a permission error. Never retried.
func NewAuthorizationError(operation string) *AppError {
	return New(ErrCodeAuthorization, fmt.Sprintf("not permitted to %s", operation)).
		WithContext("operation", operation).
		WithUserMessage("You don't have permission to do that")
}

// NewNotFoundError creates a target-absent error with resource context
func NewNotFoundError(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// NewDeviceError creates a capture device error with a per-category hint.
func NewDeviceError(category models.DeviceErrorCategory, err error) *AppError {
	appErr := Wrap(err, ErrCodeDevice, fmt.Sprintf("device acquisition failed: %s", category)).
		WithContext("category", string(category))

	switch category {
	case models.DevicePermissionDenied:
		return appErr.WithUserMessage("Microphone access was denied. Check your permission settings.")
	case models.DeviceNotFound:
		return appErr.WithUserMessage("No recording device was found.")
	default:
		return appErr.WithUserMessage("Recording failed to start. Try again.")
	}
}

// DeviceCategory extracts the device error category, defaulting to unknown.
func DeviceCategory(err error) models.DeviceErrorCategory {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Context != nil {
		if cat, ok := appErr.Context["category"].(string); ok {
			return models.DeviceErrorCategory(cat)
		}
	}
	return models.DeviceUnknown
}

// NewTimeoutError creates a timeout error with context
func NewTimeoutError(operation string, duration string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out after %s", operation, duration)).
		WithContext("operation", operation).
		WithContext("timeout", duration).
		WithUserMessage("Operation timed out, please try again")
}
