// Package service orchestrates the active room session: it joins the push
// channel, pumps events into the message store, runs the optimistic send
// flow, and exposes a renderable snapshot to the gateway.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"roomchat/internal/capture"
	apperrors "roomchat/internal/errors"
	"roomchat/internal/metrics"
	"roomchat/internal/models"
	"roomchat/internal/moderation"
	"roomchat/internal/privacy"
	"roomchat/internal/store"
	"roomchat/internal/typing"
	"roomchat/internal/validation"
	"roomchat/internal/viewport"
	"roomchat/pkg/media"
	"roomchat/pkg/transport/types"

	"github.com/sirupsen/logrus"
)

// MessageView is one message plus the viewer's permissions over it.
type MessageView struct {
	models.Message
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Snapshot is the renderable state of the session, handed to presentation on
// every poll.
type Snapshot struct {
	RoomID         string        `json:"roomId"`
	Connected      bool          `json:"connected"`
	Messages       []MessageView `json:"messages"`
	TypingNames    []string      `json:"typingNames"`
	HasMore        bool          `json:"hasMore"`
	ScrollToBottom bool          `json:"scrollToBottom"`
	CaptureState   models.CaptureState `json:"captureState"`
	QueuedFiles    []capture.QueuedFile `json:"queuedFiles,omitempty"`
}

// RoomPrefs clears durable per-room preferences after a mutating action.
// Implemented by the local database; nil when the host keeps none.
type RoomPrefs interface {
	ClearLastActiveTab(ctx context.Context, roomID string) error
}

// RoomSession binds the chat core to one room at a time. Entering a room
// bumps a generation counter; completions of work issued against an earlier
// generation are discarded rather than applied to the wrong room.
type RoomSession struct {
	client     types.Client
	channel    types.Channel
	store      *store.Store
	loader     *store.HistoryLoader
	viewport   *viewport.Controller
	tracker    *typing.Tracker
	capture    *capture.Supervisor
	membership models.MembershipView
	viewer     models.Viewer
	typingCfg  models.TypingConfig
	prefs      RoomPrefs
	logger     *logrus.Logger
	errLog     *apperrors.Logger

	mu         sync.Mutex
	gen        uint64
	roomID     string
	sender     *typing.Sender
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	autoScroll bool
}

type SessionDeps struct {
	Client     types.Client
	Channel    types.Channel
	Store      *store.Store
	Loader     *store.HistoryLoader
	Viewport   *viewport.Controller
	Tracker    *typing.Tracker
	Capture    *capture.Supervisor
	Membership models.MembershipView
	Viewer     models.Viewer
	TypingCfg  models.TypingConfig
	Prefs      RoomPrefs
	Logger     *logrus.Logger
}

func NewRoomSession(deps SessionDeps) *RoomSession {
	return &RoomSession{
		client:     deps.Client,
		channel:    deps.Channel,
		store:      deps.Store,
		loader:     deps.Loader,
		viewport:   deps.Viewport,
		tracker:    deps.Tracker,
		capture:    deps.Capture,
		membership: deps.Membership,
		viewer:     deps.Viewer,
		typingCfg:  deps.TypingCfg,
		prefs:      deps.Prefs,
		logger:     deps.Logger,
		errLog:     apperrors.NewLoggerWith(deps.Logger),
	}
}

// EnterRoom leaves the current room, resets every per-room component, loads
// the most recent page (from cache when fresh) and joins the push channel.
func (s *RoomSession) EnterRoom(ctx context.Context, roomID string) error {
	if err := validation.ValidateRoomID(roomID); err != nil {
		return err
	}

	s.teardownRoom()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.roomID = roomID
	s.autoScroll = true
	s.sender = typing.NewSender(s.typingSignal(roomID, gen),
		time.Duration(s.typingCfg.StartIntervalSec)*time.Second,
		time.Duration(s.typingCfg.IdleStopSec)*time.Second)
	s.mu.Unlock()

	s.store.Reset(roomID)
	s.viewport.Reset()
	s.tracker.Reset()

	if err := s.loader.LoadInitial(ctx, roomID); err != nil {
		return err
	}

	events, err := s.channel.Join(ctx, roomID)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	s.mu.Lock()
	s.cancelLoop = cancel
	s.loopDone = done
	s.mu.Unlock()

	go s.eventLoop(loopCtx, gen, roomID, events, done)

	s.logger.WithField("room_id", privacy.MaskRoomID(roomID)).Info("Entered room")
	return nil
}

// LeaveRoom ends the session for the current room: a final typing stop, both
// capture pipelines abandoned, the channel subscription closed.
func (s *RoomSession) LeaveRoom() {
	s.teardownRoom()

	s.mu.Lock()
	s.gen++
	s.roomID = ""
	s.mu.Unlock()

	s.store.Reset("")
	s.viewport.Reset()
	s.tracker.Reset()
}

func (s *RoomSession) teardownRoom() {
	s.mu.Lock()
	sender := s.sender
	cancel := s.cancelLoop
	done := s.loopDone
	roomID := s.roomID
	s.sender = nil
	s.cancelLoop = nil
	s.loopDone = nil
	s.mu.Unlock()

	if sender != nil {
		sender.Stop()
	}
	s.capture.Reset()
	if cancel != nil {
		cancel()
	}
	if err := s.channel.Leave(); err != nil {
		s.logger.WithError(err).Warn("Failed to leave push channel")
	}
	if done != nil {
		<-done
	}
	if roomID != "" {
		s.logger.WithField("room_id", privacy.MaskRoomID(roomID)).Info("Left room")
	}
}

// currentGen reports whether gen is still the live generation.
func (s *RoomSession) currentGen(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *RoomSession) generation() (uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen, s.roomID
}

func (s *RoomSession) eventLoop(ctx context.Context, gen uint64, roomID string, events <-chan types.Event, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !s.currentGen(gen) {
				return
			}
			s.handleEvent(ctx, gen, roomID, ev)
		}
	}
}

func (s *RoomSession) handleEvent(ctx context.Context, gen uint64, roomID string, ev types.Event) {
	if ev.RoomID != "" && ev.RoomID != roomID {
		return
	}

	switch ev.Type {
	case types.EventMessageCreated:
		if ev.Message == nil {
			return
		}
		change := s.store.ApplyCreated(*ev.Message)
		if change.Kind == store.ChangeNone {
			return
		}
		if change.Kind == store.ChangeSubstituted {
			// The entry was already on screen as pending; confirming it in
			// place keeps its position and must not move the viewport.
			return
		}
		own := ev.Message.AuthorID == s.viewer.UserID
		if s.viewport.ShouldScroll(own) {
			s.requestScroll()
		}

	case types.EventMessageEdited:
		if ev.Edit == nil {
			return
		}
		s.store.ApplyEdited(ev.Edit.MessageID, ev.Edit.Body, ev.Edit.EditedAt)

	case types.EventMessageDeleted:
		if ev.Delete == nil {
			return
		}
		s.store.ApplyDeleted(ev.Delete.MessageID)

	case types.EventTyping:
		if ev.Typing == nil {
			return
		}
		s.tracker.Observe(*ev.Typing)

	case types.EventChannelRestored:
		// Events may have been missed while disconnected; refetch the
		// latest page rather than trust the local tail.
		if err := s.loader.Refresh(ctx, roomID); err != nil {
			s.errLog.LogRetryableError(err, "refresh after reconnect")
		}

	case types.EventMemberJoined, types.EventMemberLeft:
		s.logger.WithFields(logrus.Fields{
			"room_id": privacy.MaskRoomID(roomID),
			"type":    ev.Type,
		}).Debug("Membership event")
	}
}

func (s *RoomSession) requestScroll() {
	s.mu.Lock()
	s.autoScroll = true
	s.mu.Unlock()
}

// typingSignal builds the sender callback bound to one room generation.
// Failures are swallowed; presence is best-effort.
func (s *RoomSession) typingSignal(roomID string, gen uint64) typing.SignalFunc {
	return func(isTyping bool) {
		go func() {
			if !s.currentGen(gen) {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.client.SetTyping(ctx, roomID, isTyping); err != nil {
				s.logger.WithError(err).Debug("Typing signal failed")
			} else if isTyping {
				metrics.IncrementCounter(metrics.TypingSignalsSent, nil)
			}
		}()
	}
}

// TypingInput reports a change of the composer's content.
func (s *RoomSession) TypingInput(nonEmpty bool) {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()
	if sender != nil {
		sender.InputChanged(nonEmpty)
	}
}

// ObserveScroll feeds the viewport controller with the latest scroll offset.
func (s *RoomSession) ObserveScroll(distanceFromBottom int) {
	s.viewport.ObserveScroll(distanceFromBottom)
}

// LoadOlder extends history backwards; a no-op at the room's beginning.
func (s *RoomSession) LoadOlder(ctx context.Context) error {
	_, roomID := s.generation()
	if roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}
	return s.loader.LoadOlder(ctx, roomID)
}

// SendText inserts an optimistic entry and dispatches the send in the
// background. A completion arriving after a room switch is discarded.
func (s *RoomSession) SendText(body string) (models.Message, error) {
	body = strings.TrimSpace(body)
	if err := validation.ValidateMessageBody(body); err != nil {
		return models.Message{}, err
	}

	gen, roomID := s.generation()
	if roomID == "" {
		return models.Message{}, apperrors.NewValidationError("room", "no active room")
	}

	pending := s.store.InsertOptimistic(models.Message{
		RoomID:     roomID,
		AuthorID:   s.viewer.UserID,
		AuthorName: s.viewer.Name,
		Kind:       models.TextMessage,
		Body:       body,
	})

	// Sending implies the composer is cleared.
	s.TypingInput(false)
	if s.viewport.ShouldScroll(true) {
		s.requestScroll()
	}

	go s.dispatchSend(gen, roomID, pending.TempID, func(ctx context.Context) (*models.Message, error) {
		return s.client.SendText(ctx, roomID, body)
	})
	return pending, nil
}

// StartVoice begins a voice recording for the active room.
func (s *RoomSession) StartVoice(ctx context.Context) error {
	if _, roomID := s.generation(); roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}
	return s.capture.StartVoice(ctx)
}

// StopVoice finalizes the recording for review.
func (s *RoomSession) StopVoice() error {
	return s.capture.Voice.Stop()
}

// CancelVoice abandons the recording or the review.
func (s *RoomSession) CancelVoice() {
	s.capture.Voice.Cancel()
}

// AddFiles queues picked files for dispatch.
func (s *RoomSession) AddFiles(paths ...string) error {
	if _, roomID := s.generation(); roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}
	return s.capture.AddFiles(paths...)
}

// ClearFiles abandons the file selection.
func (s *RoomSession) ClearFiles() {
	s.capture.Files.Clear()
}

// SendVoice dispatches the reviewed recording as a voice message.
func (s *RoomSession) SendVoice() (models.Message, error) {
	gen, roomID := s.generation()
	if roomID == "" {
		return models.Message{}, apperrors.NewValidationError("room", "no active room")
	}

	result, err := s.capture.Voice.TakeResult()
	if err != nil {
		return models.Message{}, err
	}

	fileName := fmt.Sprintf("voice-%d.ogg", time.Now().Unix())
	pending := s.store.InsertOptimistic(models.Message{
		RoomID:     roomID,
		AuthorID:   s.viewer.UserID,
		AuthorName: s.viewer.Name,
		Kind:       models.VoiceMessage,
		Media: &models.MediaRef{
			FileName:  fileName,
			MimeType:  result.MimeType,
			Kind:      models.VoiceMessage,
			SizeBytes: int64(len(result.Data)),
		},
	})

	payload := types.MediaPayload{Data: result.Data, FileName: fileName, MimeType: result.MimeType}
	go s.dispatchSend(gen, roomID, pending.TempID, func(ctx context.Context) (*models.Message, error) {
		return s.client.SendMedia(ctx, roomID, models.VoiceMessage, payload, "")
	})
	return pending, nil
}

// DispatchFiles sends every validated file in the queue, one message per
// file. Each file fails or succeeds independently; the queue is emptied once
// all entries have been attempted.
func (s *RoomSession) DispatchFiles() ([]models.Message, error) {
	gen, roomID := s.generation()
	if roomID == "" {
		return nil, apperrors.NewValidationError("room", "no active room")
	}

	files := s.capture.Files.Drain()
	pendings := make([]models.Message, 0, len(files))

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			s.logger.WithError(err).WithField("file", f.Name).Warn("Failed to read queued file")
			continue
		}

		payload := types.MediaPayload{
			Data:     data,
			FileName: f.Name,
			MimeType: media.MimeType(filepath.Ext(f.Path)),
		}
		pending := s.store.InsertOptimistic(models.Message{
			RoomID:     roomID,
			AuthorID:   s.viewer.UserID,
			AuthorName: s.viewer.Name,
			Kind:       f.Kind,
			Body:       f.Caption,
			Media: &models.MediaRef{
				FileName:  f.Name,
				MimeType:  payload.MimeType,
				Kind:      f.Kind,
				SizeBytes: int64(len(data)),
			},
		})
		pendings = append(pendings, pending)

		kind, caption := f.Kind, f.Caption
		tempID := pending.TempID
		go s.dispatchSend(gen, roomID, tempID, func(ctx context.Context) (*models.Message, error) {
			return s.client.SendMedia(ctx, roomID, kind, payload, caption)
		})
	}

	if len(pendings) > 0 && s.viewport.ShouldScroll(true) {
		s.requestScroll()
	}
	return pendings, nil
}

func (s *RoomSession) dispatchSend(gen uint64, roomID, tempID string, send func(context.Context) (*models.Message, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	confirmed, err := send(ctx)

	if !s.currentGen(gen) {
		// The room changed while the request was in flight; the store
		// was reset and this completion no longer has a home.
		s.logger.WithField("room_id", privacy.MaskRoomID(roomID)).Debug("Discarding stale send completion")
		return
	}

	if err != nil {
		s.errLog.LogRetryableError(err, "send message")
		s.store.MarkFailed(tempID)
		return
	}

	metrics.RecordTimer(metrics.SendLatency, time.Since(start), nil)
	metrics.IncrementCounter(metrics.MessagesSent, nil)
	s.store.ResolvePending(tempID, *confirmed)
	s.invalidateDurable(ctx, roomID)
}

// invalidateDurable drops both durable per-room artifacts, the cached history
// page and the tab preference, after a successful mutating action.
func (s *RoomSession) invalidateDurable(ctx context.Context, roomID string) {
	s.loader.Invalidate(ctx, roomID)
	if s.prefs == nil {
		return
	}
	if err := s.prefs.ClearLastActiveTab(ctx, roomID); err != nil {
		s.logger.WithError(err).Warn("Failed to clear room tab preference")
	}
}

// RetrySend re-dispatches a failed local entry.
func (s *RoomSession) RetrySend(tempID string) error {
	gen, roomID := s.generation()
	if roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}

	msg, ok := s.store.MarkPending(tempID)
	if !ok {
		return apperrors.NewNotFoundError("failed message", tempID)
	}

	go s.dispatchSend(gen, roomID, tempID, func(ctx context.Context) (*models.Message, error) {
		if msg.Kind == models.TextMessage {
			return s.client.SendText(ctx, roomID, msg.Body)
		}
		return nil, apperrors.NewValidationError("retry", "media sends cannot be retried; reattach the file")
	})
	return nil
}

// DismissFailed removes a failed local entry without sending.
func (s *RoomSession) DismissFailed(tempID string) error {
	if change := s.store.Dismiss(tempID); change.Kind == store.ChangeNone {
		return apperrors.NewNotFoundError("failed message", tempID)
	}
	return nil
}

// EditMessage checks permissions locally, calls the backend and applies the
// edit in place. A NotFound response means the message is already gone on the
// server; the local copy is removed and the operation reports success.
func (s *RoomSession) EditMessage(ctx context.Context, messageID, body string) error {
	body = strings.TrimSpace(body)
	if err := validation.ValidateMessageBody(body); err != nil {
		return err
	}
	if err := validation.ValidateMessageID(messageID); err != nil {
		return err
	}

	_, roomID := s.generation()
	if roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}

	msg, ok := s.store.Get(messageID)
	if !ok {
		return apperrors.NewNotFoundError("message", messageID)
	}
	if !s.canEdit(&msg, roomID) {
		return apperrors.NewAuthorizationError("you cannot edit this message")
	}

	updated, err := s.client.EditMessage(ctx, roomID, messageID, body)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.store.ApplyDeleted(messageID)
			return nil
		}
		return err
	}

	editedAt := time.Now()
	if updated.EditedAt != nil {
		editedAt = *updated.EditedAt
	}
	s.store.ApplyEdited(messageID, updated.Body, editedAt)
	s.invalidateDurable(ctx, roomID)
	return nil
}

// DeleteMessage checks permissions locally, calls the backend and removes the
// message. NotFound counts as success: the desired end state already holds.
func (s *RoomSession) DeleteMessage(ctx context.Context, messageID string) error {
	if err := validation.ValidateMessageID(messageID); err != nil {
		return err
	}

	_, roomID := s.generation()
	if roomID == "" {
		return apperrors.NewValidationError("room", "no active room")
	}

	msg, ok := s.store.Get(messageID)
	if !ok {
		return apperrors.NewNotFoundError("message", messageID)
	}
	if !s.canDelete(&msg, roomID) {
		return apperrors.NewAuthorizationError("you cannot delete this message")
	}

	if err := s.client.DeleteMessage(ctx, roomID, messageID); err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	s.store.ApplyDeleted(messageID)
	s.invalidateDurable(ctx, roomID)
	return nil
}

func (s *RoomSession) canEdit(msg *models.Message, roomID string) bool {
	viewerRole := s.membership.ViewerRole(roomID)
	authorRole := s.membership.AuthorRole(roomID, msg.AuthorID)
	return moderation.CanEdit(msg, s.viewer.UserID, viewerRole, authorRole)
}

func (s *RoomSession) canDelete(msg *models.Message, roomID string) bool {
	viewerRole := s.membership.ViewerRole(roomID)
	authorRole := s.membership.AuthorRole(roomID, msg.AuthorID)
	return moderation.CanDelete(msg, s.viewer.UserID, viewerRole, authorRole)
}

// Snapshot returns the renderable session state. Permissions are evaluated
// fresh on every call; role changes take effect on the next poll. The
// scroll-to-bottom flag is consumed by the read.
func (s *RoomSession) Snapshot() Snapshot {
	s.mu.Lock()
	roomID := s.roomID
	scroll := s.autoScroll
	s.autoScroll = false
	s.mu.Unlock()

	messages := s.store.Snapshot()
	views := make([]MessageView, 0, len(messages))
	viewerRole := models.RoleMember
	if roomID != "" {
		viewerRole = s.membership.ViewerRole(roomID)
	}
	for i := range messages {
		msg := messages[i]
		authorRole := models.RoleMember
		if roomID != "" {
			authorRole = s.membership.AuthorRole(roomID, msg.AuthorID)
		}
		ann := moderation.Annotate(&msg, s.viewer.UserID, viewerRole, authorRole)
		views = append(views, MessageView{Message: msg, CanEdit: ann.CanEdit, CanDelete: ann.CanDelete})
	}

	return Snapshot{
		RoomID:         roomID,
		Connected:      s.channel.Connected(),
		Messages:       views,
		TypingNames:    s.tracker.ActiveNames(s.viewer.UserID),
		HasMore:        s.store.HasMore(),
		ScrollToBottom: scroll,
		CaptureState:   s.capture.Voice.State(),
		QueuedFiles:    s.capture.Files.Files(),
	}
}
