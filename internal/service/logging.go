package service

// Standard log field names, used across the engine and the gateway so log
// lines aggregate cleanly.
const (
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"
	LogFieldMethod    = "method"
	LogFieldURL       = "url"
	LogFieldRemoteIP  = "remote_ip"

	LogFieldRoomID    = "room_id"
	LogFieldMessageID = "message_id"
	LogFieldUserID    = "user_id"
	LogFieldOperation = "operation"

	LogFieldDuration   = "duration_ms"
	LogFieldStatusCode = "status_code"
	LogFieldErrorCode  = "error_code"
	LogFieldAttempt    = "attempt"
)
