package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxLocationLen = 255

// Event is a scheduled office-hours session for a course.
type Event struct {
	EventID   int64     `json:"event_id"   db:"event_id"`
	CourseID  int64     `json:"course_id"  db:"course_id"`
	Helper    string    `json:"helper"     db:"helper"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time"   db:"end_time"`
	Location  string    `json:"location"   db:"location"`
}

// IsActiveAt reports whether the session is running at the given instant.
func (e Event) IsActiveAt(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}

// EventsListOptions bounds an event listing to a time window, typically one week.
type EventsListOptions struct {
	From time.Time
	To   time.Time
}

// CreateEventRequest represents parameters to create an Event.
type CreateEventRequest struct {
	CourseID  int64     `json:"course_id"`
	Helper    string    `json:"helper"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Location  string    `json:"location"`
}

// Validate validates CreateEventRequest.
func (r *CreateEventRequest) Validate() error {
	if r.CourseID <= 0 {
		return errors.New("course_id is required")
	}
	r.Helper = strings.TrimSpace(r.Helper)
	if r.Helper == "" {
		return errors.New("helper is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	if !r.EndTime.After(r.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return errors.New("location is required")
	}
	if utf8.RuneCountInString(r.Location) > maxLocationLen {
		return errors.New("location cannot exceed 255 characters")
	}
	return nil
}
