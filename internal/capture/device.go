// Package capture drives the two outbound media pipelines: voice recording
// and file selection. Only one pipeline is active at a time, and an acquired
// audio stream is released on every exit path, including errors.
package capture

import (
	"context"
	"errors"

	apperrors "roomchat/internal/errors"
	"roomchat/internal/models"
)

// AudioStream is an acquired microphone handle. Release must be safe to call
// more than once and after Finalize.
type AudioStream interface {
	// Finalize stops capturing and returns the encoded recording.
	Finalize() (*models.CaptureResult, error)
	// Release frees the underlying device. Idempotent.
	Release() error
}

// DeviceManager acquires capture devices. Acquisition failures carry a
// DeviceErrorCategory so the caller can show an actionable hint.
type DeviceManager interface {
	AcquireAudio(ctx context.Context) (AudioStream, error)
}

type unavailableDevices struct{}

func (unavailableDevices) AcquireAudio(ctx context.Context) (AudioStream, error) {
	return nil, apperrors.NewDeviceError(models.DeviceNotFound, errors.New("no audio device registered"))
}

// UnavailableDevices is the device manager for headless hosts. Every
// acquisition fails with a no-device error; embedding hosts supply a real
// implementation instead.
func UnavailableDevices() DeviceManager {
	return unavailableDevices{}
}
