// Package moderation decides, per message and per viewer, whether edit and
// delete actions are allowed. Decisions are pure functions of current role
// data and are never cached: roles can change while a room session is open.
package moderation

import (
	"roomchat/internal/models"
)

// CanEdit reports whether the viewer may edit the message. Only the author
// may edit, and only text messages have an editable body.
func CanEdit(msg *models.Message, viewerID string, viewerRole, authorRole models.Role) bool {
	if msg.AuthorID == viewerID {
		return msg.Kind == models.TextMessage
	}
	// Editing someone else's words is never allowed, whatever the role.
	return false
}

// CanDelete reports whether the viewer may delete the message.
//
// Rules, in order: authors may always delete their own messages of any kind;
// plain members may not touch others' messages; owners may act on anyone
// else's message; moderators may act on members' and other moderators'
// messages but never on an owner's.
func CanDelete(msg *models.Message, viewerID string, viewerRole, authorRole models.Role) bool {
	if msg.AuthorID == viewerID {
		return true
	}

	switch viewerRole {
	case models.RoleOwner:
		return true
	case models.RoleModerator:
		return authorRole != models.RoleOwner
	default:
		return false
	}
}

// Annotation carries the per-viewer action flags attached to each message
// handed to the presentation layer.
type Annotation struct {
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Annotate computes both flags for one message.
func Annotate(msg *models.Message, viewerID string, viewerRole, authorRole models.Role) Annotation {
	return Annotation{
		CanEdit:   CanEdit(msg, viewerID, viewerRole, authorRole),
		CanDelete: CanDelete(msg, viewerID, viewerRole, authorRole),
	}
}
