package typing

import (
	"sync"
	"testing"
	"time"

	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signalRecorder struct {
	mu      sync.Mutex
	signals []bool
}

func (r *signalRecorder) record(isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, isTyping)
}

func (r *signalRecorder) all() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.signals))
	copy(out, r.signals)
	return out
}

func TestSenderDebouncesStarts(t *testing.T) {
	rec := &signalRecorder{}
	s := NewSender(rec.record, 2*time.Second, time.Hour)

	base := time.Now()
	current := base
	s.now = func() time.Time { return current }

	// A burst of keystrokes inside the interval sends exactly one start.
	s.InputChanged(true)
	current = base.Add(500 * time.Millisecond)
	s.InputChanged(true)
	current = base.Add(1900 * time.Millisecond)
	s.InputChanged(true)
	assert.Equal(t, []bool{true}, rec.all())

	// Past the interval a fresh start goes out.
	current = base.Add(2100 * time.Millisecond)
	s.InputChanged(true)
	assert.Equal(t, []bool{true, true}, rec.all())
}

func TestSenderStopOnClearedComposer(t *testing.T) {
	rec := &signalRecorder{}
	s := NewSender(rec.record, 2*time.Second, time.Hour)

	s.InputChanged(true)
	s.InputChanged(false)
	assert.Equal(t, []bool{true, false}, rec.all())

	// A stop without a prior start sends nothing.
	s.InputChanged(false)
	assert.Equal(t, []bool{true, false}, rec.all())
}

func TestSenderIdleStop(t *testing.T) {
	rec := &signalRecorder{}
	s := NewSender(rec.record, 2*time.Second, 20*time.Millisecond)

	s.InputChanged(true)

	require.Eventually(t, func() bool {
		signals := rec.all()
		return len(signals) == 2 && signals[1] == false
	}, time.Second, 5*time.Millisecond, "idle timeout must send a stop")
}

func TestSenderStopIsIdempotent(t *testing.T) {
	rec := &signalRecorder{}
	s := NewSender(rec.record, 2*time.Second, time.Hour)

	s.InputChanged(true)
	s.Stop()
	s.Stop()
	assert.Equal(t, []bool{true, false}, rec.all())
}

func TestTrackerTTLExpiry(t *testing.T) {
	tr := NewTracker(8 * time.Second)

	base := time.Now()
	current := base
	tr.now = func() time.Time { return current }

	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Dana", Active: true, ReceivedAt: base})

	// Visible before the TTL elapses.
	current = base.Add(5 * time.Second)
	assert.Equal(t, []string{"Dana"}, tr.ActiveNames(""))

	// Gone after, with no explicit stop.
	current = base.Add(9 * time.Second)
	assert.Empty(t, tr.ActiveNames(""))
}

func TestTrackerStartRefreshesTTL(t *testing.T) {
	tr := NewTracker(8 * time.Second)

	base := time.Now()
	current := base
	tr.now = func() time.Time { return current }

	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Dana", Active: true, ReceivedAt: base})
	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Dana", Active: true, ReceivedAt: base.Add(6 * time.Second)})

	current = base.Add(12 * time.Second)
	assert.Equal(t, []string{"Dana"}, tr.ActiveNames(""))
}

func TestTrackerStopRemovesEntry(t *testing.T) {
	tr := NewTracker(8 * time.Second)

	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Dana", Active: true, ReceivedAt: time.Now()})
	tr.Observe(models.TypingSignal{UserID: "u1", Active: false})
	assert.Empty(t, tr.ActiveNames(""))
}

func TestTrackerExcludesViewerAndSorts(t *testing.T) {
	tr := NewTracker(8 * time.Second)
	now := time.Now()

	tr.Observe(models.TypingSignal{UserID: "u2", UserName: "Zoe", Active: true, ReceivedAt: now})
	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Ari", Active: true, ReceivedAt: now})
	tr.Observe(models.TypingSignal{UserID: "me", UserName: "Self", Active: true, ReceivedAt: now})

	assert.Equal(t, []string{"Ari", "Zoe"}, tr.ActiveNames("me"))
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(8 * time.Second)
	tr.Observe(models.TypingSignal{UserID: "u1", UserName: "Dana", Active: true, ReceivedAt: time.Now()})

	tr.Reset()
	assert.Empty(t, tr.ActiveNames(""))
}
