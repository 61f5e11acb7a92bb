package models

import "time"

// TypingSignal is an ephemeral presence event. It is never persisted; the
// receiver keeps at most one active signal per user per room and expires it
// on a fixed TTL to tolerate lost stop events.
type TypingSignal struct {
	RoomID     string    `json:"roomId"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Active     bool      `json:"active"`
	ReceivedAt time.Time `json:"-"`
}
