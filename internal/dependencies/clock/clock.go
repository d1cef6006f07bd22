package clock

import "time"

// Precision is the finest time resolution every storage backend round-trips.
// Session start/end times and closure timestamps are truncated to it.
const Precision = time.Millisecond

// Clock supplies the timestamps recorded on players, sessions and closures
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock
type SystemClock struct{}

// New creates a new SystemClock
func New() SystemClock {
	return SystemClock{}
}

// Now returns the current UTC time truncated to Precision
func (SystemClock) Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to UTC at Precision
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}
