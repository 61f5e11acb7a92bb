// Package validation checks identifiers and user input before they reach the
// backend or the local database.
package validation

import (
	"fmt"
	"net/http"

	"roomchat/internal/constants"
	"roomchat/internal/errors"
)

// ValidateRoomID validates a room identifier.
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return errors.NewValidationError("roomId", "room identifier cannot be empty")
	}
	if len(roomID) > constants.MaxIdentifierLength {
		return errors.NewValidationError("roomId",
			fmt.Sprintf("room identifier too long (max %d characters)", constants.MaxIdentifierLength))
	}
	return validateNoControlChars("roomId", roomID)
}

// ValidateMessageID validates a server or client message identifier.
func ValidateMessageID(messageID string) error {
	if messageID == "" {
		return errors.NewValidationError("messageId", "message identifier cannot be empty")
	}
	if len(messageID) > constants.MaxIdentifierLength {
		return errors.NewValidationError("messageId",
			fmt.Sprintf("message identifier too long (max %d characters)", constants.MaxIdentifierLength))
	}
	return validateNoControlChars("messageId", messageID)
}

// ValidateMessageBody validates message text before sending or editing.
func ValidateMessageBody(body string) error {
	if body == "" {
		return errors.NewValidationError("body", "message body is empty")
	}
	if len(body) > constants.MaxMessageBodyLength {
		return errors.NewValidationError("body",
			fmt.Sprintf("message body too long (max %d bytes)", constants.MaxMessageBodyLength))
	}
	return nil
}

// ValidateHTTPRequestSize rejects oversized gateway request bodies.
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength > maxSizeBytes {
		return errors.NewValidationError("body",
			fmt.Sprintf("request body too large (max %d bytes)", maxSizeBytes))
	}
	return nil
}

func validateNoControlChars(field, value string) error {
	for _, char := range value {
		if char == '\x00' || char == '\n' || char == '\r' || char == '\t' {
			return errors.NewValidationError(field, "identifier contains invalid characters")
		}
	}
	return nil
}
