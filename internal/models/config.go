package models

// ConfigError indicates an invalid or incomplete configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

// BackendConfig points at the room backend's request/response API.
type BackendConfig struct {
	APIBaseURL string `json:"api_base_url"`
	AuthToken  string `json:"auth_token,omitempty"`
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

// ChannelConfig points at the backend's push-channel endpoint.
type ChannelConfig struct {
	URL            string `json:"url"`
	ReadTimeoutSec int    `json:"read_timeout_sec,omitempty"`
}

// DatabaseConfig locates the local cache/preferences database.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// MediaSizeLimits caps attachment sizes per kind, in megabytes.
type MediaSizeLimits struct {
	Image    int `json:"image"`
	Video    int `json:"video"`
	Document int `json:"document"`
	Voice    int `json:"voice"`
}

// MediaAllowedTypes lists permitted file extensions per kind.
type MediaAllowedTypes struct {
	Image    []string `json:"image"`
	Video    []string `json:"video"`
	Document []string `json:"document"`
	Voice    []string `json:"voice"`
}

// MediaConfig governs outbound attachment validation.
type MediaConfig struct {
	MaxSizeMB    MediaSizeLimits   `json:"max_size_mb"`
	AllowedTypes MediaAllowedTypes `json:"allowed_types"`
}

// RetryConfig governs transport retry/backoff behaviour.
type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms"`
	MaxAttempts      int `json:"max_attempts"`
}

// TypingConfig tunes the presence coordinator.
type TypingConfig struct {
	StartIntervalSec int `json:"start_interval_sec,omitempty"`
	IdleStopSec      int `json:"idle_stop_sec,omitempty"`
	TTLSec           int `json:"ttl_sec,omitempty"`
}

// HistoryConfig tunes paging and the short-lived page cache.
type HistoryConfig struct {
	PageSize    int `json:"page_size,omitempty"`
	CacheTTLSec int `json:"cache_ttl_sec,omitempty"`
}

// ViewportConfig tunes the scroll controller.
type ViewportConfig struct {
	NearBottomThresholdPx int `json:"near_bottom_threshold_px,omitempty"`
}

// GatewayConfig shapes the local HTTP surface exposed to presentation.
type GatewayConfig struct {
	Port            int `json:"port,omitempty"`
	ReadTimeoutSec  int `json:"read_timeout_sec,omitempty"`
	WriteTimeoutSec int `json:"write_timeout_sec,omitempty"`
	IdleTimeoutSec  int `json:"idle_timeout_sec,omitempty"`
}

// TracingConfig enables OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
	UseStdout    bool   `json:"use_stdout,omitempty"`
	SampleRate   float64 `json:"sample_rate,omitempty"`
}

// Config is the root configuration for the chat engine daemon.
type Config struct {
	Viewer   Viewer         `json:"viewer"`
	Backend  BackendConfig  `json:"backend"`
	Channel  ChannelConfig  `json:"channel"`
	Database DatabaseConfig `json:"database"`
	Media    MediaConfig    `json:"media"`
	Retry    RetryConfig    `json:"retry"`
	Typing   TypingConfig   `json:"typing"`
	History  HistoryConfig  `json:"history"`
	Viewport ViewportConfig `json:"viewport"`
	Gateway  GatewayConfig  `json:"gateway"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level,omitempty"`
}
