package privacy

import (
	"strings"

	"roomchat/internal/constants"
)

// MaskUserID masks a user identifier for log output.
// Example: "user-8f2c91d4" -> "*********91d4"
func MaskUserID(userID string) string {
	return maskString(userID, constants.DefaultUserIDMaskLength)
}

// MaskRoomID masks a room identifier while keeping the tail for correlation.
func MaskRoomID(roomID string) string {
	return maskString(roomID, constants.DefaultUserIDMaskLength)
}

// MaskMessageID shortens a message identifier so logs stay greppable without
// exposing the full server ID.
func MaskMessageID(messageID string) string {
	if messageID == "" {
		return ""
	}
	if len(messageID) > constants.DefaultMessageIDLength {
		return messageID[:constants.DefaultMessageIDLength] + "..."
	}
	return messageID
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		s, isString := v.(string)
		if !isString {
			masked[k] = v
			continue
		}
		switch k {
		case "user_id", "userId", "author_id", "authorId", "viewer_id":
			masked[k] = MaskUserID(s)
		case "room_id", "roomId", "room":
			masked[k] = MaskRoomID(s)
		case "message_id", "messageId", "msg_id", "temp_id":
			masked[k] = MaskMessageID(s)
		default:
			masked[k] = v
		}
	}

	return masked
}
