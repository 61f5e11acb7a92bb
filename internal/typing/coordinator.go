// Package typing implements both halves of typing presence: the sender-side
// debounce that bounds outbound signal rate, and the receiver-side TTL
// aggregation of who is typing now.
package typing

import (
	"sort"
	"sync"
	"time"

	"roomchat/internal/models"
)

// SignalFunc dispatches a typing start/stop to the backend. Best-effort; the
// coordinator never inspects the outcome.
type SignalFunc func(isTyping bool)

// Sender turns composer input into a bounded stream of typing signals:
// at most one start per startInterval, a stop after idleStop without input,
// and an immediate stop when the composer is cleared or the message sent.
type Sender struct {
	signal        SignalFunc
	startInterval time.Duration
	idleStop      time.Duration

	mu        sync.Mutex
	started   bool
	lastStart time.Time
	idleTimer *time.Timer
	now       func() time.Time
}

func NewSender(signal SignalFunc, startInterval, idleStop time.Duration) *Sender {
	return &Sender{
		signal:        signal,
		startInterval: startInterval,
		idleStop:      idleStop,
		now:           time.Now,
	}
}

// InputChanged is called on every composer change. An empty composer sends an
// immediate stop; otherwise a start is sent if none went out within the
// debounce interval, and the inactivity timer is rearmed either way.
func (s *Sender) InputChanged(nonEmpty bool) {
	if !nonEmpty {
		s.Stop()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.started || now.Sub(s.lastStart) >= s.startInterval {
		s.started = true
		s.lastStart = now
		s.signal(true)
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.idleStop, s.Stop)
}

// Stop sends a stop signal if a start was previously signaled, and disarms
// the inactivity timer. Called on composer clear, message send, and room exit.
func (s *Sender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if !s.started {
		return
	}
	s.started = false
	s.signal(false)
}

// Tracker aggregates received typing signals per user. Entries expire after
// the TTL even without an explicit stop; expiry is evaluated lazily on read
// so no background timer outlives a room switch.
type Tracker struct {
	ttl time.Duration

	mu     sync.Mutex
	byUser map[string]models.TypingSignal
	now    func() time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:    ttl,
		byUser: make(map[string]models.TypingSignal),
		now:    time.Now,
	}
}

// Observe folds one received signal into the aggregate: starts create or
// refresh the entry, stops remove it.
func (t *Tracker) Observe(sig models.TypingSignal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !sig.Active {
		delete(t.byUser, sig.UserID)
		return
	}
	if sig.ReceivedAt.IsZero() {
		sig.ReceivedAt = t.now()
	}
	t.byUser[sig.UserID] = sig
}

// ActiveNames returns the display names of users typing within the TTL,
// pruning expired entries as it goes. excludeUserID filters the local viewer
// out of their own typing list.
func (t *Tracker) ActiveNames(excludeUserID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	names := make([]string, 0, len(t.byUser))
	for userID, sig := range t.byUser {
		if sig.ReceivedAt.Before(cutoff) {
			delete(t.byUser, userID)
			continue
		}
		if userID == excludeUserID {
			continue
		}
		names = append(names, sig.UserName)
	}

	sort.Strings(names)
	return names
}

// Reset discards all state. Called on room switch.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byUser = make(map[string]models.TypingSignal)
}
