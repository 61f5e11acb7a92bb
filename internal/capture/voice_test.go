package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "roomchat/internal/errors"
	"roomchat/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	result      *models.CaptureResult
	finalizeErr error
	released    int
}

func (f *fakeStream) Finalize() (*models.CaptureResult, error) {
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	return f.result, nil
}

func (f *fakeStream) Release() error {
	f.released++
	return nil
}

type fakeDevices struct {
	stream     *fakeStream
	acquireErr error
	acquired   int
}

func (f *fakeDevices) AcquireAudio(ctx context.Context) (AudioStream, error) {
	f.acquired++
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return f.stream, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestVoiceHappyPath(t *testing.T) {
	stream := &fakeStream{result: &models.CaptureResult{Data: []byte("opus"), MimeType: "audio/ogg"}}
	devices := &fakeDevices{stream: stream}
	r := NewVoiceRecorder(devices, quietLogger())

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, models.CaptureRecording, r.State())

	require.NoError(t, r.Stop())
	assert.Equal(t, models.CaptureReviewing, r.State())
	assert.Equal(t, 1, stream.released, "stream must be released on stop")

	result, err := r.TakeResult()
	require.NoError(t, err)
	assert.Equal(t, models.VoiceMessage, result.Kind)
	assert.Equal(t, []byte("opus"), result.Data)
	assert.Equal(t, models.CaptureIdle, r.State())
}

func TestVoiceCancelWhileRecordingReleasesStream(t *testing.T) {
	stream := &fakeStream{result: &models.CaptureResult{}}
	r := NewVoiceRecorder(&fakeDevices{stream: stream}, quietLogger())

	require.NoError(t, r.Start(context.Background()))
	r.Cancel()

	assert.Equal(t, models.CaptureIdle, r.State())
	assert.Equal(t, 1, stream.released)

	_, err := r.TakeResult()
	assert.Error(t, err, "no result survives a cancel")
}

func TestVoiceCancelDuringReviewDiscardsResult(t *testing.T) {
	stream := &fakeStream{result: &models.CaptureResult{Data: []byte("x")}}
	r := NewVoiceRecorder(&fakeDevices{stream: stream}, quietLogger())

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	r.Cancel()

	_, err := r.TakeResult()
	assert.Error(t, err)
	assert.Equal(t, models.CaptureIdle, r.State())
}

func TestVoiceAcquireFailureCategorized(t *testing.T) {
	deviceErr := apperrors.NewDeviceError(models.DevicePermissionDenied, errors.New("denied"))
	r := NewVoiceRecorder(&fakeDevices{acquireErr: deviceErr}, quietLogger())

	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDevice, apperrors.GetCode(err))
	assert.Equal(t, models.DevicePermissionDenied, apperrors.DeviceCategory(err))
	assert.Equal(t, models.CaptureError, r.State())
}

func TestVoiceFinalizeFailureReleasesStream(t *testing.T) {
	stream := &fakeStream{finalizeErr: errors.New("encoder crashed")}
	r := NewVoiceRecorder(&fakeDevices{stream: stream}, quietLogger())

	require.NoError(t, r.Start(context.Background()))
	err := r.Stop()

	require.Error(t, err)
	assert.Equal(t, models.CaptureError, r.State())
	assert.Equal(t, 1, stream.released, "stream must be released even when finalize fails")
}

func TestVoiceRestartAfterError(t *testing.T) {
	devices := &fakeDevices{acquireErr: errors.New("busy")}
	r := NewVoiceRecorder(devices, quietLogger())

	require.Error(t, r.Start(context.Background()))

	devices.acquireErr = nil
	devices.stream = &fakeStream{result: &models.CaptureResult{}}
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, models.CaptureRecording, r.State())
}

func TestVoiceStartWhileRecordingRejected(t *testing.T) {
	r := NewVoiceRecorder(&fakeDevices{stream: &fakeStream{result: &models.CaptureResult{}}}, quietLogger())

	require.NoError(t, r.Start(context.Background()))
	err := r.Start(context.Background())
	assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.GetCode(err))
}

func TestVoiceStopWithoutRecordingRejected(t *testing.T) {
	r := NewVoiceRecorder(&fakeDevices{}, quietLogger())
	assert.Error(t, r.Stop())
}

func TestVoiceStopRejectsOverlongRecording(t *testing.T) {
	stream := &fakeStream{result: &models.CaptureResult{Data: []byte("opus")}}
	r := NewVoiceRecorder(&fakeDevices{stream: stream}, quietLogger())

	start := time.Now()
	r.now = func() time.Time { return start }
	require.NoError(t, r.Start(context.Background()))

	r.now = func() time.Time { return start.Add(6 * time.Minute) }
	err := r.Stop()

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.GetCode(err))
	assert.Equal(t, models.CaptureError, r.State())
	assert.Equal(t, 1, stream.released, "stream must be released when the cap is exceeded")

	_, takeErr := r.TakeResult()
	assert.Error(t, takeErr, "no result survives an over-length recording")
}
