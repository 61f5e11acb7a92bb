package types

import (
	"encoding/json"
	"time"

	"roomchat/internal/models"
)

// EventType identifies a push-channel event.
type EventType string

const (
	EventMessageCreated EventType = "created"
	EventMessageEdited  EventType = "edited"
	EventMessageDeleted EventType = "deleted"
	EventTyping         EventType = "typing"
	EventMemberJoined   EventType = "joined"
	EventMemberLeft     EventType = "left"

	// EventChannelRestored is synthesized locally after a reconnect; it never
	// arrives on the wire. The session reacts by refetching history.
	EventChannelRestored EventType = "channel_restored"
)

// Envelope is the wire form of a push-channel event.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EditPayload carries an in-place message edit.
type EditPayload struct {
	MessageID string    `json:"messageId"`
	Body      string    `json:"body"`
	EditedAt  time.Time `json:"editedAt"`
}

// DeletePayload identifies a removed message.
type DeletePayload struct {
	MessageID string `json:"messageId"`
}

// MemberPayload describes a join/leave notification.
type MemberPayload struct {
	UserID string      `json:"userId"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role,omitempty"`
}

// Event is a decoded push-channel event.
type Event struct {
	Type    EventType
	RoomID  string
	Message *models.Message
	Edit    *EditPayload
	Delete  *DeletePayload
	Typing  *models.TypingSignal
	Member  *MemberPayload
}

// MediaPayload is an outbound attachment, carried base64-encoded in the send
// request body.
type MediaPayload struct {
	Data     []byte
	FileName string
	MimeType string
}

// SendTextRequest is the request body of a text send.
type SendTextRequest struct {
	Body string `json:"body"`
}

// SendMediaRequest is the request body of a media send.
type SendMediaRequest struct {
	Kind       models.MessageKind `json:"kind"`
	Caption    string             `json:"caption,omitempty"`
	FileName   string             `json:"fileName"`
	MimeType   string             `json:"mimeType"`
	Base64Data string             `json:"data"`
}

// EditMessageRequest is the request body of an edit.
type EditMessageRequest struct {
	Body string `json:"body"`
}

// TypingRequest is the request body of a typing signal.
type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

// SendMessageResponse wraps the server-confirmed message.
type SendMessageResponse struct {
	Message models.Message `json:"message"`
}

// HistoryResponse is one page of room history, newest page first.
type HistoryResponse struct {
	Messages []models.Message `json:"messages"`
	Cursor   string           `json:"cursor,omitempty"`
	HasMore  bool             `json:"hasMore"`
}

// ErrorResponse is the backend's error body shape.
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}
