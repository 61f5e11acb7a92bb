package service

import (
	"context"
	"net/http"
	"time"

	"roomchat/internal/capture"
	"roomchat/internal/database"
	"roomchat/internal/models"
	"roomchat/internal/retry"
	"roomchat/internal/store"
	"roomchat/internal/typing"
	"roomchat/internal/viewport"
	"roomchat/pkg/media"
	"roomchat/pkg/transport"
	"roomchat/pkg/transport/types"

	"github.com/sirupsen/logrus"
)

// Engine is the composition root of the chat core. It builds the transport,
// the store, the capture pipelines and the session, and owns their lifetime.
type Engine struct {
	Session *RoomSession

	db     *database.Database
	logger *logrus.Logger
}

// NewEngine wires the engine from configuration. The membership view and the
// device manager are supplied by the host; the engine never implements them.
func NewEngine(cfg *models.Config, viewer models.Viewer, membership models.MembershipView, devices capture.DeviceManager, logger *logrus.Logger) (*Engine, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSec) * time.Second}
	client := transport.NewClient(cfg.Backend.APIBaseURL, cfg.Backend.AuthToken, httpClient, logger)

	backoff := retry.BackoffConfig{
		InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  cfg.Retry.MaxAttempts,
		Jitter:       true,
	}
	channel := transport.NewPushChannel(cfg.Channel.URL, cfg.Backend.AuthToken,
		time.Duration(cfg.Channel.ReadTimeoutSec)*time.Second, backoff, logger)

	messages := store.New(store.SignatureWindow())
	loader := store.NewHistoryLoader(client, db, messages, cfg.History, logger)

	validator := media.NewValidator(cfg.Media)
	supervisor := capture.NewSupervisor(
		capture.NewVoiceRecorder(devices, logger),
		capture.NewFileQueue(validator),
	)

	session := NewRoomSession(SessionDeps{
		Client:     client,
		Channel:    channel,
		Store:      messages,
		Loader:     loader,
		Viewport:   viewport.NewController(cfg.Viewport.NearBottomThresholdPx),
		Tracker:    typing.NewTracker(time.Duration(cfg.Typing.TTLSec) * time.Second),
		Capture:    supervisor,
		Membership: membership,
		Viewer:     viewer,
		TypingCfg:  cfg.Typing,
		Prefs:      db,
		Logger:     logger,
	})

	return &Engine{Session: session, db: db, logger: logger}, nil
}

// Client exposes the backend client for hosts that need direct access.
func (e *Engine) Client() types.Client { return e.Session.client }

// SetActiveTab persists the room's last active sidebar tab.
func (e *Engine) SetActiveTab(ctx context.Context, roomID, tab string) error {
	return e.db.SetLastActiveTab(ctx, roomID, tab)
}

// ActiveTab returns the room's last active sidebar tab, empty when unset.
func (e *Engine) ActiveTab(ctx context.Context, roomID string) (string, error) {
	return e.db.GetLastActiveTab(ctx, roomID)
}

// CleanupCache drops expired cached pages. Safe to call periodically.
func (e *Engine) CleanupCache(ctx context.Context, ttl time.Duration) error {
	return e.db.CleanupExpiredPages(ctx, ttl)
}

// Close leaves the active room and releases every engine resource.
func (e *Engine) Close() error {
	e.Session.LeaveRoom()
	return e.db.Close()
}
