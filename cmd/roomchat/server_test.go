package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"roomchat/internal/capture"
	"roomchat/internal/models"
	"roomchat/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &models.Config{
		Viewer:   models.Viewer{UserID: "u1", Name: "Viewer", Role: models.RoleMember},
		Backend:  models.BackendConfig{APIBaseURL: "http://127.0.0.1:1", TimeoutSec: 1},
		Channel:  models.ChannelConfig{URL: "http://127.0.0.1:1"},
		Database: models.DatabaseConfig{Path: filepath.Join(t.TempDir(), "gateway.db")},
		Media: models.MediaConfig{
			MaxSizeMB:    models.MediaSizeLimits{Image: 8, Video: 64, Document: 32, Voice: 16},
			AllowedTypes: models.MediaAllowedTypes{Image: []string{"jpg"}},
		},
		Retry:  models.RetryConfig{InitialBackoffMs: 10, MaxBackoffMs: 50, MaxAttempts: 1},
		Typing: models.TypingConfig{StartIntervalSec: 2, IdleStopSec: 5, TTLSec: 8},
	}

	membership := staticMembership{viewer: cfg.Viewer}
	engine, err := service.NewEngine(cfg, cfg.Viewer, membership, capture.UnavailableDevices(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return NewServer(engine, cfg.Gateway, logger)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "counters")
	assert.Contains(t, body, "uptime_ms")
}

func TestSnapshotWithoutRoom(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Empty(t, snap.RoomID)
	assert.False(t, snap.Connected)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, models.CaptureIdle, snap.CaptureState)
}

func TestEnterRoomRejectsEmptyID(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/session/room", `{"roomId":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestEnterRoomRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/session/room", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendTextWithoutActiveRoom(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/messages", `{"body":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.False(t, body.Error.Retryable)
}

func TestDismissUnknownTempID(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/v1/messages/failed/no-such-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestVoiceStartWithoutRoom(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/capture/voice/start", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceStopWithoutRecording(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/capture/voice/stop", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTypingEndpointAcceptsInput(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/typing", `{"nonEmpty":true}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestScrollEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/session/scroll", `{"distanceFromBottom":400}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTabPreferenceRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/rooms/room-1/tab", `{"tab":"media"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/rooms/room-1/tab", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "media", body["tab"])
}

func TestTabPreferenceUnsetRoom(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/rooms/never-seen/tab", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["tab"])
}

func TestOversizedRequestRejected(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{"body":"x"}`))
	req.ContentLength = 10 << 20
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaveRoomAlwaysSucceeds(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/api/v1/session/room", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDHeaderSet(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStaticMembershipRoles(t *testing.T) {
	m := staticMembership{viewer: models.Viewer{UserID: "u1", Role: models.RoleModerator}}

	assert.Equal(t, models.RoleModerator, m.ViewerRole("room-1"))
	assert.Equal(t, models.RoleModerator, m.AuthorRole("room-1", "u1"))
	assert.Equal(t, models.RoleMember, m.AuthorRole("room-1", "u2"))

	empty := staticMembership{viewer: models.Viewer{UserID: "u1"}}
	assert.Equal(t, models.RoleMember, empty.ViewerRole("room-1"))
}
