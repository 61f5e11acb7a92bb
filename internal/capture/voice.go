package capture

import (
	"context"
	"sync"
	"time"

	"roomchat/internal/constants"
	apperrors "roomchat/internal/errors"
	"roomchat/internal/metrics"
	"roomchat/internal/models"

	"github.com/sirupsen/logrus"
)

// VoiceRecorder is the voice pipeline state machine:
//
//	idle -> recording -> reviewing -> idle (send or discard)
//
// Cancel from recording releases the stream without producing a result.
// Any failure lands in the error state with the stream already released;
// Start from the error state begins a fresh attempt.
type VoiceRecorder struct {
	devices     DeviceManager
	logger      *logrus.Logger
	maxDuration time.Duration

	mu        sync.Mutex
	state     models.CaptureState
	stream    AudioStream
	result    *models.CaptureResult
	startedAt time.Time
	lastErr   error

	now func() time.Time
}

func NewVoiceRecorder(devices DeviceManager, logger *logrus.Logger) *VoiceRecorder {
	return &VoiceRecorder{
		devices:     devices,
		logger:      logger,
		maxDuration: constants.DefaultMaxVoiceDurationSec * time.Second,
		state:       models.CaptureIdle,
		now:         time.Now,
	}
}

// State returns the current pipeline state.
func (r *VoiceRecorder) State() models.CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastError returns the error that put the recorder into the error state.
func (r *VoiceRecorder) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Start acquires the microphone and begins recording. Valid from idle or
// error; any other state is a validation error.
func (r *VoiceRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != models.CaptureIdle && r.state != models.CaptureError {
		return apperrors.NewValidationError("capture", "recording already in progress")
	}

	stream, err := r.devices.AcquireAudio(ctx)
	if err != nil {
		category := apperrors.DeviceCategory(err)
		r.state = models.CaptureError
		r.lastErr = apperrors.NewDeviceError(category, err)
		metrics.IncrementCounter(metrics.CaptureErrors, map[string]string{"category": string(category)})
		r.logger.WithError(err).WithField("category", category).Warn("Audio device acquisition failed")
		return r.lastErr
	}

	r.stream = stream
	r.result = nil
	r.lastErr = nil
	r.startedAt = r.now()
	r.state = models.CaptureRecording
	metrics.IncrementCounter(metrics.CaptureStarts, nil)
	return nil
}

// Stop finalizes the recording and moves to reviewing. The stream is released
// whether finalization succeeds or not.
func (r *VoiceRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != models.CaptureRecording {
		return apperrors.NewValidationError("capture", "no recording in progress")
	}

	r.state = models.CaptureStopped
	result, err := r.stream.Finalize()
	r.releaseLocked()

	if err != nil {
		r.state = models.CaptureError
		r.lastErr = apperrors.NewDeviceError(apperrors.DeviceCategory(err), err)
		metrics.IncrementCounter(metrics.CaptureErrors, nil)
		return r.lastErr
	}

	if result.Duration == 0 {
		result.Duration = r.now().Sub(r.startedAt)
	}
	if result.Duration > r.maxDuration {
		r.state = models.CaptureError
		r.lastErr = apperrors.NewValidationError("capture", "recording exceeds the maximum duration")
		return r.lastErr
	}
	result.Kind = models.VoiceMessage
	r.result = result
	r.state = models.CaptureReviewing
	return nil
}

// Cancel abandons the recording or the review. The stream is released and no
// result survives. Safe to call in any state.
func (r *VoiceRecorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked()
	r.result = nil
	r.lastErr = nil
	r.state = models.CaptureIdle
}

// TakeResult hands the reviewed recording to the caller for dispatch and
// returns the recorder to idle.
func (r *VoiceRecorder) TakeResult() (*models.CaptureResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != models.CaptureReviewing || r.result == nil {
		return nil, apperrors.NewValidationError("capture", "no recording available for review")
	}
	result := r.result
	r.result = nil
	r.state = models.CaptureIdle
	return result, nil
}

func (r *VoiceRecorder) releaseLocked() {
	if r.stream == nil {
		return
	}
	if err := r.stream.Release(); err != nil {
		r.logger.WithError(err).Warn("Failed to release audio stream")
	}
	r.stream = nil
}
