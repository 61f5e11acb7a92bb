// Package store holds the single source of truth for the active room's
// ordered message list and reconciles its three inputs: historical pages,
// push events, and local optimistic entries.
package store

import (
	"sync"
	"time"

	"roomchat/internal/constants"
	"roomchat/internal/metrics"
	"roomchat/internal/models"

	"github.com/google/uuid"
)

// ChangeKind describes what a reconciliation call did to the list.
type ChangeKind string

const (
	ChangeNone        ChangeKind = "none"
	ChangeAppended    ChangeKind = "appended"
	ChangeSubstituted ChangeKind = "substituted"
	ChangeEdited      ChangeKind = "edited"
	ChangeDeleted     ChangeKind = "deleted"
)

// Change reports the outcome of a mutation so callers (the session and the
// viewport controller) can react without diffing the list.
type Change struct {
	Kind    ChangeKind
	Message *models.Message
}

// Store is the in-memory ordered message list for one room. All mutations
// are idempotent: push delivery is at-least-once and completions can arrive
// out of issue order.
type Store struct {
	signatureWindow time.Duration

	mu       sync.Mutex
	roomID   string
	messages []models.Message
	nextSeq  uint64
	cursor   string
	hasMore  bool
}

func New(signatureWindow time.Duration) *Store {
	return &Store{signatureWindow: signatureWindow}
}

// SignatureWindow is the default tolerance when matching a confirmed message
// against a pending local entry by content signature.
func SignatureWindow() time.Duration {
	return constants.DefaultSignatureWindowSec * time.Second
}

// Reset clears everything and rebinds the store to a room. Called on every
// room switch; nothing carries over.
func (s *Store) Reset(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.messages = nil
	s.nextSeq = 0
	s.cursor = ""
	s.hasMore = false
}

// ReplaceAll installs a freshly fetched most-recent page, dropping whatever
// was displayed. Messages arrive oldest-first.
func (s *Store) ReplaceAll(page *models.MessagePage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]models.Message, 0, len(page.Messages))
	s.nextSeq = 0
	for _, msg := range page.Messages {
		msg.State = models.MessageConfirmed
		msg.Seq = s.nextSeq
		s.nextSeq++
		s.messages = append(s.messages, msg)
	}
	s.cursor = page.Cursor
	s.hasMore = page.HasMore
}

// Reconcile installs a freshly fetched most-recent page while carrying over
// local pending and failed entries the page does not cover. The fresh page is
// authoritative for confirmed history, but it knows nothing about in-flight
// or failed sends; those stay visible so retry and dismiss survive a
// reconnect. A local entry whose signature matches a fresh message adopts
// that message instead, keeping its temp ID so a late send confirmation is
// recognized as a duplicate.
func (s *Store) Reconcile(page *models.MessagePage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var local []models.Message
	for _, msg := range s.messages {
		if msg.State != models.MessageConfirmed {
			local = append(local, msg)
		}
	}

	s.messages = make([]models.Message, 0, len(page.Messages)+len(local))
	s.nextSeq = 0
	for _, msg := range page.Messages {
		msg.State = models.MessageConfirmed
		msg.Seq = s.nextSeq
		s.nextSeq++
		s.messages = append(s.messages, msg)
	}

	for _, entry := range local {
		matched := false
		for i := range s.messages {
			if s.messages[i].State == models.MessageConfirmed &&
				entry.SameSignature(&s.messages[i], s.signatureWindow) {
				s.messages[i].TempID = entry.TempID
				matched = true
				break
			}
		}
		if matched {
			metrics.IncrementCounter(metrics.MessagesReconciled, nil)
			continue
		}
		entry.Seq = s.nextSeq
		s.nextSeq++
		s.messages = append(s.messages, entry)
	}

	s.cursor = page.Cursor
	s.hasMore = page.HasMore
}

// Prepend inserts an older page before the current list. The pagination
// cursor advances monotonically; reaching the end flips hasMore off and
// later loads become no-ops at the caller.
func (s *Store) Prepend(page *models.MessagePage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	older := make([]models.Message, 0, len(page.Messages))
	for _, msg := range page.Messages {
		if s.findByKeyLocked(msg.Key()) >= 0 {
			metrics.IncrementCounter(metrics.DuplicatesDropped, nil)
			continue
		}
		msg.State = models.MessageConfirmed
		msg.Seq = s.nextSeq
		s.nextSeq++
		older = append(older, msg)
	}
	s.messages = append(older, s.messages...)
	s.cursor = page.Cursor
	s.hasMore = page.HasMore
}

// HasMore reports whether older history remains.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Cursor returns the current pagination cursor.
func (s *Store) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// RoomID returns the room the store is bound to.
func (s *Store) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// InsertOptimistic appends a pending entry with a client-generated temp ID so
// the sender sees their message before the network call returns.
func (s *Store) InsertOptimistic(draft models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft.ID = ""
	draft.TempID = uuid.NewString()
	draft.State = models.MessagePending
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	draft.Seq = s.nextSeq
	s.nextSeq++

	s.messages = append(s.messages, draft)
	metrics.IncrementCounter(metrics.OptimisticInserts, nil)
	return draft
}

// ApplyCreated reconciles an incoming confirmed message. If the identifier is
// already present the event is a duplicate and dropped. If a pending local
// entry matches the content signature, it is replaced in place so the visual
// position is preserved. Otherwise the message is appended after the last
// confirmed entry, before any still-pending tail.
func (s *Store) ApplyCreated(msg models.Message) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID != "" && s.findByIDLocked(msg.ID) >= 0 {
		metrics.IncrementCounter(metrics.DuplicatesDropped, nil)
		return Change{Kind: ChangeNone}
	}

	msg.State = models.MessageConfirmed

	for i := range s.messages {
		existing := &s.messages[i]
		if existing.State != models.MessagePending {
			continue
		}
		if existing.SameSignature(&msg, s.signatureWindow) {
			msg.TempID = existing.TempID
			msg.Seq = existing.Seq
			s.messages[i] = msg
			metrics.IncrementCounter(metrics.MessagesReconciled, nil)
			return Change{Kind: ChangeSubstituted, Message: &s.messages[i]}
		}
	}

	msg.Seq = s.nextSeq
	s.nextSeq++

	// Confirmed entries stay ahead of the pending tail.
	insertAt := len(s.messages)
	for insertAt > 0 && s.messages[insertAt-1].State != models.MessageConfirmed {
		insertAt--
	}
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[insertAt+1:], s.messages[insertAt:])
	s.messages[insertAt] = msg

	return Change{Kind: ChangeAppended, Message: &s.messages[insertAt]}
}

// ResolvePending reconciles the response of the send request that created the
// pending entry. If a push echo already substituted it the confirmation is a
// duplicate; first to arrive wins.
func (s *Store) ResolvePending(tempID string, confirmed models.Message) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	if confirmed.ID != "" {
		if idx := s.findByIDLocked(confirmed.ID); idx >= 0 {
			// The push echo won the race. Drop the confirmation, and the
			// pending entry too if the echo did not substitute it.
			if tempIdx := s.findByTempIDLocked(tempID); tempIdx >= 0 && s.messages[tempIdx].ID == "" {
				s.messages = append(s.messages[:tempIdx], s.messages[tempIdx+1:]...)
			}
			metrics.IncrementCounter(metrics.DuplicatesDropped, nil)
			return Change{Kind: ChangeNone}
		}
	}

	idx := s.findByTempIDLocked(tempID)
	if idx < 0 {
		// The pending entry is gone (dismissed, or the room was reset);
		// late confirmations are dropped rather than re-appended.
		return Change{Kind: ChangeNone}
	}

	confirmed.TempID = tempID
	confirmed.State = models.MessageConfirmed
	confirmed.Seq = s.messages[idx].Seq
	s.messages[idx] = confirmed
	metrics.IncrementCounter(metrics.MessagesReconciled, nil)
	return Change{Kind: ChangeSubstituted, Message: &s.messages[idx]}
}

// MarkFailed flips a pending entry to failed. The entry stays visible so the
// user can retry or dismiss it.
func (s *Store) MarkFailed(tempID string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByTempIDLocked(tempID)
	if idx < 0 || s.messages[idx].State != models.MessagePending {
		return Change{Kind: ChangeNone}
	}
	s.messages[idx].State = models.MessageFailed
	metrics.IncrementCounter(metrics.SendFailures, nil)
	return Change{Kind: ChangeEdited, Message: &s.messages[idx]}
}

// MarkPending flips a failed entry back to pending for a retry attempt.
func (s *Store) MarkPending(tempID string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByTempIDLocked(tempID)
	if idx < 0 || s.messages[idx].State != models.MessageFailed {
		return models.Message{}, false
	}
	s.messages[idx].State = models.MessagePending
	return s.messages[idx], true
}

// Dismiss removes a failed local entry.
func (s *Store) Dismiss(tempID string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByTempIDLocked(tempID)
	if idx < 0 || s.messages[idx].State != models.MessageFailed {
		return Change{Kind: ChangeNone}
	}
	removed := s.messages[idx]
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	return Change{Kind: ChangeDeleted, Message: &removed}
}

// ApplyEdited mutates a message in place. Applying twice, or to an absent
// identifier, is a silent no-op.
func (s *Store) ApplyEdited(id, body string, editedAt time.Time) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByIDLocked(id)
	if idx < 0 {
		return Change{Kind: ChangeNone}
	}

	msg := &s.messages[idx]
	if msg.Edited && msg.EditedAt != nil && !editedAt.After(*msg.EditedAt) && msg.Body == body {
		return Change{Kind: ChangeNone}
	}
	msg.Body = body
	msg.Edited = true
	msg.EditedAt = &editedAt
	return Change{Kind: ChangeEdited, Message: msg}
}

// ApplyDeleted removes a message entirely; there is no tombstone. Idempotent.
func (s *Store) ApplyDeleted(id string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByIDLocked(id)
	if idx < 0 {
		return Change{Kind: ChangeNone}
	}
	removed := s.messages[idx]
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	return Change{Kind: ChangeDeleted, Message: &removed}
}

// Get returns a copy of the message with the given server ID.
func (s *Store) Get(id string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByIDLocked(id)
	if idx < 0 {
		return models.Message{}, false
	}
	return s.messages[idx], true
}

// Snapshot returns a copy of the current list in display order.
func (s *Store) Snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Store) findByIDLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findByTempIDLocked(tempID string) int {
	if tempID == "" {
		return -1
	}
	for i := range s.messages {
		if s.messages[i].TempID == tempID {
			return i
		}
	}
	return -1
}

func (s *Store) findByKeyLocked(key string) int {
	if key == "" {
		return -1
	}
	for i := range s.messages {
		if s.messages[i].Key() == key {
			return i
		}
	}
	return -1
}
