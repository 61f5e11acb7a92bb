package models

import (
	"time"
)

// MessageKind identifies the payload carried by a message.
type MessageKind string

const (
	TextMessage     MessageKind = "text"
	ImageMessage    MessageKind = "image"
	VideoMessage    MessageKind = "video"
	VoiceMessage    MessageKind = "voice"
	DocumentMessage MessageKind = "document"
	SystemMessage   MessageKind = "system"
)

// MessageState is the soft lifecycle state of a message in the local list.
type MessageState string

const (
	MessagePending   MessageState = "pending"
	MessageConfirmed MessageState = "confirmed"
	MessageFailed    MessageState = "failed"
)

// Role is a member's position in the room hierarchy.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// MediaRef points at an uploaded attachment. URL is empty until the server
// confirms the upload.
type MediaRef struct {
	URL       string      `json:"url,omitempty"`
	FileName  string      `json:"fileName,omitempty"`
	MimeType  string      `json:"mimeType,omitempty"`
	Kind      MessageKind `json:"kind"`
	SizeBytes int64       `json:"sizeBytes"`
}

// Message is one entry in a room's ordered feed. Confirmed messages carry a
// server-assigned ID; pending and failed ones are identified by TempID only.
type Message struct {
	ID           string       `json:"id,omitempty"`
	TempID       string       `json:"tempId,omitempty"`
	RoomID       string       `json:"roomId"`
	AuthorID     string       `json:"authorId"`
	AuthorName   string       `json:"authorName"`
	AuthorAvatar string       `json:"authorAvatar,omitempty"`
	AuthorRole   Role         `json:"authorRole,omitempty"`
	Kind         MessageKind  `json:"kind"`
	Body         string       `json:"body,omitempty"`
	Media        *MediaRef    `json:"media,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	EditedAt     *time.Time   `json:"editedAt,omitempty"`
	Edited       bool         `json:"edited"`
	State        MessageState `json:"state"`

	// Seq is the client arrival sequence, used only as an ordering
	// tie-break for equal timestamps. Never re-assigned after insert.
	Seq uint64 `json:"-"`
}

// Key returns the identity under which the message is deduplicated: the
// server ID once confirmed, the client temp ID before that.
func (m *Message) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.TempID
}

// SameSignature reports whether other looks like the server-confirmed echo of
// this pending message: same author, same body and attachment URL, created
// within the given window. Used to substitute a pending entry in place.
func (m *Message) SameSignature(other *Message, window time.Duration) bool {
	if m.AuthorID != other.AuthorID || m.Kind != other.Kind || m.Body != other.Body {
		return false
	}
	mURL, oURL := "", ""
	if m.Media != nil {
		mURL = m.Media.URL
	}
	if other.Media != nil {
		oURL = other.Media.URL
	}
	if mURL != oURL && m.Kind != TextMessage {
		return false
	}
	delta := other.CreatedAt.Sub(m.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= window
}

// MessagePage is one page of room history.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Cursor   string    `json:"cursor,omitempty"`
	HasMore  bool      `json:"hasMore"`
}
