// Package viewport decides whether the view should follow the newest message
// after a list mutation. It never touches rendering; it only answers the
// question and tracks the reader's divergence from the bottom.
package viewport

import (
	"sync"
)

// Controller tracks the viewer's scroll position relative to the bottom of
// the feed. A manual upward scroll sets a diverged flag that only clears once
// the viewer returns near the bottom themselves.
type Controller struct {
	nearBottomThreshold int

	mu                 sync.Mutex
	distanceFromBottom int
	diverged           bool
}

func NewController(nearBottomThresholdPx int) *Controller {
	return &Controller{nearBottomThreshold: nearBottomThresholdPx}
}

// ObserveScroll records a scroll position report from the presentation layer.
// distanceFromBottom is the pixel distance between the viewport's lower edge
// and the end of the feed.
func (c *Controller) ObserveScroll(distanceFromBottom int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	movedUp := distanceFromBottom > c.distanceFromBottom
	c.distanceFromBottom = distanceFromBottom

	if distanceFromBottom <= c.nearBottomThreshold {
		c.diverged = false
	} else if movedUp {
		c.diverged = true
	}
}

// ShouldScroll decides whether the viewport should move to the newest message.
// The sender always sees their own send land at the bottom; messages from
// others only pull the view down when the reader was already near the bottom
// and has not diverged.
func (c *Controller) ShouldScroll(ownMessage bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ownMessage {
		c.diverged = false
		c.distanceFromBottom = 0
		return true
	}
	if c.diverged {
		return false
	}
	return c.distanceFromBottom <= c.nearBottomThreshold
}

// NearBottom reports whether the viewer is currently within the threshold.
func (c *Controller) NearBottom() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distanceFromBottom <= c.nearBottomThreshold
}

// Reset clears all position state. Called on room switch so no stale
// near-bottom or diverged flag carries over.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distanceFromBottom = 0
	c.diverged = false
}
