package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskUserID(t *testing.T) {
	assert.Equal(t, "*********91d4", MaskUserID("user-8f2c91d4"))
	assert.Equal(t, "***", MaskUserID("abc"))
	assert.Equal(t, "", MaskUserID(""))
}

func TestMaskRoomID(t *testing.T) {
	assert.Equal(t, "******-042", MaskRoomID("room-a-042"))
	assert.Equal(t, "****", MaskRoomID("r-42"))
}

func TestMaskMessageID(t *testing.T) {
	assert.Equal(t, "01924cf3...", MaskMessageID("01924cf3-88aa-7def"))
	assert.Equal(t, "short", MaskMessageID("short"))
	assert.Equal(t, "", MaskMessageID(""))
}

func TestMaskSensitiveFields(t *testing.T) {
	fields := map[string]interface{}{
		"user_id":    "user-8f2c91d4",
		"room_id":    "room-a-042",
		"message_id": "01924cf3-88aa-7def",
		"duration":   42,
		"operation":  "send message",
	}

	masked := MaskSensitiveFields(fields)

	assert.Equal(t, "*********91d4", masked["user_id"])
	assert.Equal(t, "******-042", masked["room_id"])
	assert.Equal(t, "01924cf3...", masked["message_id"])
	assert.Equal(t, 42, masked["duration"])
	assert.Equal(t, "send message", masked["operation"])

	assert.Nil(t, MaskSensitiveFields(nil))
}
