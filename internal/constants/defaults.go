package constants

// Default typing presence values
const (
	DefaultTypingStartIntervalSec = 2
	DefaultTypingIdleStopSec      = 5
	DefaultTypingTTLSec           = 8
)

// Default history and cache values
const (
	DefaultHistoryPageSize    = 50
	DefaultHistoryCacheTTLSec = 30
)

// Default reconciliation values
const (
	// Window inside which a pending message's timestamp may differ from a
	// server-confirmed one and still be treated as the same send.
	DefaultSignatureWindowSec = 30
)

// Default viewport values
const (
	DefaultNearBottomThresholdPx = 120
)

// Default media configuration values
const (
	DefaultMaxImageSizeMB    = 5
	DefaultMaxVideoSizeMB    = 100
	DefaultMaxDocumentSizeMB = 100
	DefaultMaxVoiceSizeMB    = 16
)

// Default capture values
const (
	DefaultMaxVoiceDurationSec = 300
)

// Default transport values
const (
	DefaultHTTPTimeoutSec        = 30
	DefaultChannelReadTimeoutSec = 60
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
)

// Input validation bounds
const (
	MaxIdentifierLength  = 128
	MaxMessageBodyLength = 65536
	MaxRequestBodyBytes  = 1 << 20
)

// Default gateway server values
const (
	DefaultGatewayPort           = 8074
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Privacy settings
const (
	DefaultUserIDMaskLength = 4
	DefaultMessageIDLength  = 8
)

// Encryption settings for the local cache database
const (
	EncryptionSalt = "roomchat-cache-salt-v1"
)
