package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roomchat/internal/constants"
	apperrors "roomchat/internal/errors"
	"roomchat/internal/middleware"
	"roomchat/internal/models"
	"roomchat/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the local HTTP gateway the presentation layer talks to. It is a
// thin adapter: state flows out through snapshot reads, intents flow in
// through imperative endpoints, and all chat semantics stay in the engine.
type Server struct {
	router *mux.Router
	logger *logrus.Logger
	engine *service.Engine
	server *http.Server
	cfg    models.GatewayConfig
}

func NewServer(engine *service.Engine, cfg models.GatewayConfig, logger *logrus.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		engine: engine,
		cfg:    cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/session", s.handleSnapshot()).Methods(http.MethodGet)
	api.HandleFunc("/session/room", s.handleEnterRoom()).Methods(http.MethodPut)
	api.HandleFunc("/session/room", s.handleLeaveRoom()).Methods(http.MethodDelete)
	api.HandleFunc("/session/scroll", s.handleScroll()).Methods(http.MethodPost)
	api.HandleFunc("/session/history/older", s.handleLoadOlder()).Methods(http.MethodPost)

	api.HandleFunc("/messages", s.handleSendText()).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}", s.handleEditMessage()).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{id}", s.handleDeleteMessage()).Methods(http.MethodDelete)
	api.HandleFunc("/messages/failed/{tempId}/retry", s.handleRetry()).Methods(http.MethodPost)
	api.HandleFunc("/messages/failed/{tempId}", s.handleDismiss()).Methods(http.MethodDelete)

	api.HandleFunc("/typing", s.handleTyping()).Methods(http.MethodPost)

	api.HandleFunc("/capture/voice/start", s.handleVoiceStart()).Methods(http.MethodPost)
	api.HandleFunc("/capture/voice/stop", s.handleVoiceStop()).Methods(http.MethodPost)
	api.HandleFunc("/capture/voice/cancel", s.handleVoiceCancel()).Methods(http.MethodPost)
	api.HandleFunc("/capture/voice/send", s.handleVoiceSend()).Methods(http.MethodPost)

	api.HandleFunc("/capture/files", s.handleAddFiles()).Methods(http.MethodPost)
	api.HandleFunc("/capture/files", s.handleClearFiles()).Methods(http.MethodDelete)
	api.HandleFunc("/capture/files/dispatch", s.handleDispatchFiles()).Methods(http.MethodPost)

	api.HandleFunc("/rooms/{id}/tab", s.handleSetTab()).Methods(http.MethodPut)
	api.HandleFunc("/rooms/{id}/tab", s.handleGetTab()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	port := s.cfg.Port
	if port == 0 {
		port = constants.DefaultGatewayPort
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  secondsOr(s.cfg.ReadTimeoutSec, constants.DefaultServerReadTimeoutSec),
		WriteTimeout: secondsOr(s.cfg.WriteTimeoutSec, constants.DefaultServerWriteTimeoutSec),
		IdleTimeout:  secondsOr(s.cfg.IdleTimeoutSec, constants.DefaultServerIdleTimeoutSec),
	}

	s.logger.Infof("Starting gateway on port %d", port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses for the
// presentation layer.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case apperrors.ErrCodeAuthorization:
		status = http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeTransport, apperrors.ErrCodeTimeout:
		status = http.StatusBadGateway
	case apperrors.ErrCodeDevice:
		status = http.StatusConflict
	}

	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":      string(apperrors.GetCode(err)),
			"message":   apperrors.GetUserMessage(err),
			"retryable": apperrors.IsRetryable(err),
		},
	})
}
