package config

import (
	"encoding/json"
	"fmt"
	"os"

	"roomchat/internal/constants"
	"roomchat/internal/models"
	"roomchat/internal/security"
)

var (
	ErrMissingBackendURL = models.ConfigError{Message: "missing backend API base URL"}
	ErrMissingChannelURL = models.ConfigError{Message: "missing push channel URL"}
	ErrMissingDBPath     = models.ConfigError{Message: "missing database path"}
	ErrMissingViewerID   = models.ConfigError{Message: "missing viewer user id"}
)

func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Backend.APIBaseURL == "" {
		return ErrMissingBackendURL
	}
	if c.Channel.URL == "" {
		return ErrMissingChannelURL
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Viewer.UserID == "" {
		return ErrMissingViewerID
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return models.ConfigError{Message: "tracing sample rate must be between 0 and 1"}
	}
	return nil
}

func applyDefaults(c *models.Config) {
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Channel.ReadTimeoutSec <= 0 {
		c.Channel.ReadTimeoutSec = constants.DefaultChannelReadTimeoutSec
	}

	if c.Media.MaxSizeMB.Image == 0 {
		c.Media.MaxSizeMB.Image = constants.DefaultMaxImageSizeMB
	}
	if c.Media.MaxSizeMB.Video == 0 {
		c.Media.MaxSizeMB.Video = constants.DefaultMaxVideoSizeMB
	}
	if c.Media.MaxSizeMB.Document == 0 {
		c.Media.MaxSizeMB.Document = constants.DefaultMaxDocumentSizeMB
	}
	if c.Media.MaxSizeMB.Voice == 0 {
		c.Media.MaxSizeMB.Voice = constants.DefaultMaxVoiceSizeMB
	}

	if len(c.Media.AllowedTypes.Image) == 0 {
		c.Media.AllowedTypes.Image = constants.DefaultImageTypes
	}
	if len(c.Media.AllowedTypes.Video) == 0 {
		c.Media.AllowedTypes.Video = constants.DefaultVideoTypes
	}
	if len(c.Media.AllowedTypes.Document) == 0 {
		c.Media.AllowedTypes.Document = constants.DefaultDocumentTypes
	}
	if len(c.Media.AllowedTypes.Voice) == 0 {
		c.Media.AllowedTypes.Voice = constants.DefaultVoiceTypes
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}

	if c.Typing.StartIntervalSec <= 0 {
		c.Typing.StartIntervalSec = constants.DefaultTypingStartIntervalSec
	}
	if c.Typing.IdleStopSec <= 0 {
		c.Typing.IdleStopSec = constants.DefaultTypingIdleStopSec
	}
	if c.Typing.TTLSec <= 0 {
		c.Typing.TTLSec = constants.DefaultTypingTTLSec
	}

	if c.History.PageSize <= 0 {
		c.History.PageSize = constants.DefaultHistoryPageSize
	}
	if c.History.CacheTTLSec <= 0 {
		c.History.CacheTTLSec = constants.DefaultHistoryCacheTTLSec
	}

	if c.Viewport.NearBottomThresholdPx <= 0 {
		c.Viewport.NearBottomThresholdPx = constants.DefaultNearBottomThresholdPx
	}

	if c.Viewer.Role == "" {
		c.Viewer.Role = models.RoleMember
	}

	if c.Gateway.Port <= 0 {
		c.Gateway.Port = constants.DefaultGatewayPort
	}
	if c.Gateway.ReadTimeoutSec <= 0 {
		c.Gateway.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Gateway.WriteTimeoutSec <= 0 {
		c.Gateway.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Gateway.IdleTimeoutSec <= 0 {
		c.Gateway.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("ROOMCHAT_API_URL"); url != "" {
		c.Backend.APIBaseURL = url
	}

	// SECURITY: auth tokens should be set via environment, not the config file
	if token := os.Getenv("ROOMCHAT_AUTH_TOKEN"); token != "" {
		c.Backend.AuthToken = token
	}

	if url := os.Getenv("ROOMCHAT_CHANNEL_URL"); url != "" {
		c.Channel.URL = url
	}
	if path := os.Getenv("ROOMCHAT_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("ROOMCHAT_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}
