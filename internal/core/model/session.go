package model

import (
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// Session is a contiguous span of activity bounded by inactivity on both sides.
// DurationMinutes is only authoritative once EndedAt is set.
type Session struct {
	ID              int        `json:"id"`
	StartedAt       time.Time  `json:"startedAt"`
	LastActivity    time.Time  `json:"lastActivity"`
	EndedAt         *time.Time `json:"endedAt"`
	DurationMinutes int        `json:"durationMinutes"`
	EventCount      int        `json:"eventCount"`
}

// NewSession opens a session at the given time with one recorded event
func NewSession(id int, at time.Time) *Session {
	return &Session{
		ID:           id,
		StartedAt:    at,
		LastActivity: at,
		EventCount:   1,
	}
}

// IsOpen reports whether the session has not been closed yet
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// Touch extends the session to the given time
func (s *Session) Touch(at time.Time) {
	s.LastActivity = at
	s.EventCount++
}

// Close ends the session and fixes its duration
func (s *Session) Close(end time.Time) {
	s.EndedAt = &end
	s.DurationMinutes = util.RoundMinutes(end.Sub(s.StartedAt))
}

// LiveMinutes is the duration of a closed session, or the time elapsed since
// start for an open one
func (s *Session) LiveMinutes(now time.Time) int {
	if !s.IsOpen() {
		return s.DurationMinutes
	}
	if now.Before(s.StartedAt) {
		return 0
	}
	return util.RoundMinutes(now.Sub(s.StartedAt))
}

// End returns the end of the session for display: EndedAt, or LastActivity while open
func (s *Session) End() time.Time {
	if s.EndedAt != nil {
		return *s.EndedAt
	}
	return s.LastActivity
}
