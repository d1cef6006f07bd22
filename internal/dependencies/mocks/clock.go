package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/rpsls-go/internal/dependencies/clock"
)

// MockClock is a settable Clock. Times are normalized the same way the
// system clock normalizes them, so assertions against stored values hold.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: clock.Normalize(t)}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time
func (c *MockClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = clock.Normalize(c.now.Add(d))
	return c.now
}

// Set moves the clock to t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = clock.Normalize(t)
}
