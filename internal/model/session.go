package model

import (
	"strconv"
	"time"
)

// SessionID uniquely identifies a session
type SessionID int64

func (id SessionID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "InProgress"
	SessionStatusCompleted  SessionStatus = "Completed"
)

// Valid reports whether s is a known status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusInProgress, SessionStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseSessionStatus converts a stored status string
func ParseSessionStatus(s string) (SessionStatus, error) {
	status := SessionStatus(s)
	if !status.Valid() {
		return "", StorageError("parse session status", &InvalidValueError{Field: "status", Value: s})
	}
	return status, nil
}

// Session is a bounded span of play containing games
type Session struct {
	ID        SessionID
	StartTime time.Time
	EndTime   *time.Time // nil while active
	Status    SessionStatus
}

// IsActive returns true until the session has been ended
func (s *Session) IsActive() bool {
	return s.EndTime == nil
}

// InvalidValueError reports a persisted value outside its enumeration
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return "invalid " + e.Field + " value " + strconv.Quote(e.Value)
}
