package models

import "time"

// CaptureState is the lifecycle of an in-progress recording.
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureRecording CaptureState = "recording"
	CaptureStopped   CaptureState = "stopped"
	CaptureReviewing CaptureState = "reviewing"
	CaptureError     CaptureState = "error"
)

// DeviceErrorCategory classifies device acquisition failures for user hints.
type DeviceErrorCategory string

const (
	DevicePermissionDenied DeviceErrorCategory = "permission_denied"
	DeviceNotFound         DeviceErrorCategory = "no_device"
	DeviceUnknown          DeviceErrorCategory = "unknown"
)

// CaptureResult is the finalized payload of a stopped recording, ready for
// review and dispatch.
type CaptureResult struct {
	Kind     MessageKind
	Data     []byte
	MimeType string
	Duration time.Duration
}
