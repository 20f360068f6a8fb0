package repo

import (
	"sync"
	"time"
)

// appendClock hands out non-decreasing timestamps for message creation.
// Conversation ordering is defined solely by created_at, so two appends
// landing in the same wall-clock instant are tie-broken by a nanosecond bump
// in commit order.
type appendClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *appendClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}
