package types

import (
	"context"

	"roomchat/internal/models"
)

// Client is the request/response side of the room backend.
type Client interface {
	SendText(ctx context.Context, roomID, body string) (*models.Message, error)
	SendMedia(ctx context.Context, roomID string, kind models.MessageKind, payload MediaPayload, caption string) (*models.Message, error)
	EditMessage(ctx context.Context, roomID, messageID, body string) (*models.Message, error)
	DeleteMessage(ctx context.Context, roomID, messageID string) error
	SetTyping(ctx context.Context, roomID string, isTyping bool) error
	FetchHistory(ctx context.Context, roomID, cursor string, limit int) (*models.MessagePage, error)
}

// Channel is the push side: one subscription per room, joined exactly once on
// room entry and left exactly once on exit.
type Channel interface {
	// Join opens the room subscription and returns the event stream. The
	// stream is closed when Leave is called or the context is cancelled.
	Join(ctx context.Context, roomID string) (<-chan Event, error)
	// Leave tears the subscription down. Safe to call more than once.
	Leave() error
	// Connected reports whether the push connection is currently live.
	Connected() bool
}
