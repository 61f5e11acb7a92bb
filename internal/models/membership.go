package models

// Viewer identifies the local user inside the active room.
type Viewer struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      Role   `json:"role"`
}

// MembershipView is the read-only projection supplied by the room/membership
// subsystem. The chat core consumes it for permission decisions and never
// mutates it. Role data must be read fresh on every call; promotion and
// demotion can happen while a room session is open.
type MembershipView interface {
	ViewerRole(roomID string) Role
	AuthorRole(roomID, authorID string) Role
}
