package store

import (
	"testing"
	"time"

	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	s := New(30 * time.Second)
	s.Reset("room-1")
	return s
}

func confirmedMessage(id, authorID, body string) models.Message {
	return models.Message{
		ID:        id,
		RoomID:    "room-1",
		AuthorID:  authorID,
		Kind:      models.TextMessage,
		Body:      body,
		CreatedAt: time.Now(),
		State:     models.MessageConfirmed,
	}
}

func TestReplaceAll(t *testing.T) {
	s := newTestStore()
	s.ReplaceAll(&models.MessagePage{
		Messages: []models.Message{
			confirmedMessage("1", "alice", "first"),
			confirmedMessage("2", "bob", "second"),
		},
		Cursor:  "cursor-1",
		HasMore: true,
	})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "1", snapshot[0].ID)
	assert.Equal(t, "2", snapshot[1].ID)
	assert.True(t, s.HasMore())
	assert.Equal(t, "cursor-1", s.Cursor())
}

func TestReconcilePreservesPendingAndFailedEntries(t *testing.T) {
	s := newTestStore()
	s.ReplaceAll(&models.MessagePage{Messages: []models.Message{
		confirmedMessage("1", "bob", "old"),
	}})

	pending := s.InsertOptimistic(models.Message{
		RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "in flight",
	})
	failed := s.InsertOptimistic(models.Message{
		RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "went wrong",
	})
	s.MarkFailed(failed.TempID)

	s.Reconcile(&models.MessagePage{
		Messages: []models.Message{
			confirmedMessage("1", "bob", "old"),
			confirmedMessage("2", "bob", "arrived while away"),
		},
		HasMore: true,
	})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 4)
	assert.Equal(t, "1", snapshot[0].ID)
	assert.Equal(t, "2", snapshot[1].ID)
	assert.Equal(t, pending.TempID, snapshot[2].TempID)
	assert.Equal(t, models.MessagePending, snapshot[2].State)
	assert.Equal(t, failed.TempID, snapshot[3].TempID)
	assert.Equal(t, models.MessageFailed, snapshot[3].State)
	assert.True(t, s.HasMore())
}

func TestReconcileMatchesPendingBySignature(t *testing.T) {
	s := newTestStore()
	pending := s.InsertOptimistic(models.Message{
		RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "made it",
	})

	s.Reconcile(&models.MessagePage{Messages: []models.Message{
		confirmedMessage("7", "alice", "made it"),
	}})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "7", snapshot[0].ID)
	assert.Equal(t, pending.TempID, snapshot[0].TempID)
	assert.Equal(t, models.MessageConfirmed, snapshot[0].State)

	// The late send confirmation is a duplicate, not a new entry.
	change := s.ResolvePending(pending.TempID, confirmedMessage("7", "alice", "made it"))
	assert.Equal(t, ChangeNone, change.Kind)
	assert.Equal(t, 1, s.Len())
}

func TestApplyCreatedDeduplicatesByID(t *testing.T) {
	s := newTestStore()

	msg := confirmedMessage("42", "bob", "hello")
	first := s.ApplyCreated(msg)
	assert.Equal(t, ChangeAppended, first.Kind)

	second := s.ApplyCreated(msg)
	assert.Equal(t, ChangeNone, second.Kind)
	assert.Equal(t, 1, s.Len())
}

func TestOptimisticSendConfirmedByResponse(t *testing.T) {
	s := newTestStore()

	pending := s.InsertOptimistic(models.Message{
		RoomID:   "room-1",
		AuthorID: "alice",
		Kind:     models.TextMessage,
		Body:     "hello",
	})
	require.NotEmpty(t, pending.TempID)
	assert.Empty(t, pending.ID)
	assert.Equal(t, models.MessagePending, pending.State)

	confirmed := confirmedMessage("42", "alice", "hello")
	change := s.ResolvePending(pending.TempID, confirmed)
	assert.Equal(t, ChangeSubstituted, change.Kind)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "42", snapshot[0].ID)
	assert.Equal(t, models.MessageConfirmed, snapshot[0].State)
	assert.Equal(t, pending.Seq, snapshot[0].Seq)
}

func TestPushEchoSubstitutesPendingBySignature(t *testing.T) {
	s := newTestStore()

	pending := s.InsertOptimistic(models.Message{
		RoomID:   "room-1",
		AuthorID: "alice",
		Kind:     models.TextMessage,
		Body:     "hello",
	})

	// The push echo races ahead of the request's own response.
	echo := confirmedMessage("42", "alice", "hello")
	change := s.ApplyCreated(echo)
	assert.Equal(t, ChangeSubstituted, change.Kind)
	assert.Equal(t, 1, s.Len())

	// The response confirmation arrives second and must not re-add.
	late := s.ResolvePending(pending.TempID, confirmedMessage("42", "alice", "hello"))
	assert.Equal(t, ChangeNone, late.Kind)
	assert.Equal(t, 1, s.Len())
}

func TestSignatureMatchRequiresSameAuthorAndBody(t *testing.T) {
	s := newTestStore()

	s.InsertOptimistic(models.Message{
		RoomID:   "room-1",
		AuthorID: "alice",
		Kind:     models.TextMessage,
		Body:     "hello",
	})

	// Same body from a different author is a distinct message.
	change := s.ApplyCreated(confirmedMessage("9", "bob", "hello"))
	assert.Equal(t, ChangeAppended, change.Kind)
	assert.Equal(t, 2, s.Len())
}

func TestConfirmedInsertsBeforePendingTail(t *testing.T) {
	s := newTestStore()

	s.InsertOptimistic(models.Message{RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "mine"})
	change := s.ApplyCreated(confirmedMessage("7", "bob", "theirs"))
	assert.Equal(t, ChangeAppended, change.Kind)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "7", snapshot[0].ID)
	assert.Equal(t, models.MessagePending, snapshot[1].State)
}

func TestApplyEditedIsIdempotent(t *testing.T) {
	s := newTestStore()
	s.ApplyCreated(confirmedMessage("1", "alice", "original"))

	editedAt := time.Now()
	first := s.ApplyEdited("1", "updated", editedAt)
	assert.Equal(t, ChangeEdited, first.Kind)

	second := s.ApplyEdited("1", "updated", editedAt)
	assert.Equal(t, ChangeNone, second.Kind)

	msg, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "updated", msg.Body)
	assert.True(t, msg.Edited)
}

func TestApplyEditedUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore()
	change := s.ApplyEdited("missing", "body", time.Now())
	assert.Equal(t, ChangeNone, change.Kind)
}

func TestApplyDeletedIsIdempotent(t *testing.T) {
	s := newTestStore()
	s.ApplyCreated(confirmedMessage("1", "alice", "bye"))

	first := s.ApplyDeleted("1")
	assert.Equal(t, ChangeDeleted, first.Kind)
	assert.Equal(t, 0, s.Len())

	second := s.ApplyDeleted("1")
	assert.Equal(t, ChangeNone, second.Kind)
}

func TestMarkFailedRetryDismiss(t *testing.T) {
	s := newTestStore()

	pending := s.InsertOptimistic(models.Message{RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "hi"})

	change := s.MarkFailed(pending.TempID)
	assert.Equal(t, ChangeEdited, change.Kind)

	msg, ok := s.MarkPending(pending.TempID)
	require.True(t, ok)
	assert.Equal(t, models.MessagePending, msg.State)

	// Dismiss only removes failed entries.
	assert.Equal(t, ChangeNone, s.Dismiss(pending.TempID).Kind)

	s.MarkFailed(pending.TempID)
	assert.Equal(t, ChangeDeleted, s.Dismiss(pending.TempID).Kind)
	assert.Equal(t, 0, s.Len())
}

func TestResolvePendingAfterDismissIsDropped(t *testing.T) {
	s := newTestStore()

	pending := s.InsertOptimistic(models.Message{RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "hi"})
	s.MarkFailed(pending.TempID)
	s.Dismiss(pending.TempID)

	change := s.ResolvePending(pending.TempID, confirmedMessage("9", "alice", "hi"))
	assert.Equal(t, ChangeNone, change.Kind)
	assert.Equal(t, 0, s.Len())
}

func TestResolvePendingDropsOrphanAfterEchoAppend(t *testing.T) {
	s := newTestStore()

	// A media echo carries a server URL the pending entry lacks, so the
	// signature never matches and the echo appends as a new entry.
	pending := s.InsertOptimistic(models.Message{
		RoomID:   "room-1",
		AuthorID: "alice",
		Kind:     models.ImageMessage,
		Media:    &models.MediaRef{FileName: "cat.jpg", Kind: models.ImageMessage},
	})

	echo := models.Message{
		ID:        "42",
		RoomID:    "room-1",
		AuthorID:  "alice",
		Kind:      models.ImageMessage,
		Media:     &models.MediaRef{URL: "https://cdn/c.jpg", FileName: "cat.jpg", Kind: models.ImageMessage},
		CreatedAt: time.Now(),
	}
	assert.Equal(t, ChangeAppended, s.ApplyCreated(echo).Kind)
	assert.Equal(t, 2, s.Len())

	change := s.ResolvePending(pending.TempID, echo)
	assert.Equal(t, ChangeNone, change.Kind)
	assert.Equal(t, 1, s.Len())

	snapshot := s.Snapshot()
	assert.Equal(t, "42", snapshot[0].ID)
}

func TestPrependSkipsDuplicates(t *testing.T) {
	s := newTestStore()
	s.ReplaceAll(&models.MessagePage{
		Messages: []models.Message{confirmedMessage("3", "alice", "latest")},
		Cursor:   "c1",
		HasMore:  true,
	})

	s.Prepend(&models.MessagePage{
		Messages: []models.Message{
			confirmedMessage("1", "bob", "oldest"),
			confirmedMessage("3", "alice", "latest"),
		},
		Cursor:  "c2",
		HasMore: false,
	})

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "1", snapshot[0].ID)
	assert.Equal(t, "3", snapshot[1].ID)
	assert.False(t, s.HasMore())
	assert.Equal(t, "c2", s.Cursor())
}

func TestResetClearsEverything(t *testing.T) {
	s := newTestStore()
	s.ApplyCreated(confirmedMessage("1", "alice", "hi"))
	s.InsertOptimistic(models.Message{RoomID: "room-1", AuthorID: "alice", Kind: models.TextMessage, Body: "pending"})

	s.Reset("room-2")

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "room-2", s.RoomID())
	assert.False(t, s.HasMore())
	assert.Empty(t, s.Cursor())
}

func TestSignatureWindowRejectsStaleMatch(t *testing.T) {
	s := newTestStore()

	pending := s.InsertOptimistic(models.Message{
		RoomID:    "room-1",
		AuthorID:  "alice",
		Kind:      models.TextMessage,
		Body:      "hello",
		CreatedAt: time.Now().Add(-2 * time.Minute),
	})
	_ = pending

	echo := confirmedMessage("42", "alice", "hello")
	change := s.ApplyCreated(echo)
	assert.Equal(t, ChangeAppended, change.Kind, "a confirmed message outside the time window must not replace the pending entry")
	assert.Equal(t, 2, s.Len())
}
