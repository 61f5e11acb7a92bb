package capture

import (
	"context"

	apperrors "roomchat/internal/errors"
	"roomchat/internal/models"
)

// Supervisor owns both pipelines and enforces that only one is active at a
// time: a live recording blocks file selection and a populated file queue
// blocks recording.
type Supervisor struct {
	Voice *VoiceRecorder
	Files *FileQueue
}

func NewSupervisor(voice *VoiceRecorder, files *FileQueue) *Supervisor {
	return &Supervisor{Voice: voice, Files: files}
}

// StartVoice begins a recording unless the file pipeline is in use.
func (s *Supervisor) StartVoice(ctx context.Context) error {
	if s.Files.Len() > 0 {
		return apperrors.NewValidationError("capture", "file selection in progress")
	}
	return s.Voice.Start(ctx)
}

// AddFiles enqueues selected files unless the voice pipeline is in use.
func (s *Supervisor) AddFiles(paths ...string) error {
	switch s.Voice.State() {
	case models.CaptureRecording, models.CaptureStopped, models.CaptureReviewing:
		return apperrors.NewValidationError("capture", "voice recording in progress")
	}
	s.Files.Add(paths...)
	return nil
}

// Reset abandons whatever either pipeline holds. Called on room switch and on
// session shutdown; the voice stream release is unconditional.
func (s *Supervisor) Reset() {
	s.Voice.Cancel()
	s.Files.Clear()
}
