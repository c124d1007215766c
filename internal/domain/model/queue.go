package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxProblemLen = 500
	maxNotesLen   = 2000
)

// QueueEntry is one student waiting in an office-hours session queue.
// The queue is keyed by event: one entry per student per session,
// insertion-ordered by join time.
type QueueEntry struct {
	EventID  int64     `json:"event_id"  db:"event_id"`
	NetID    string    `json:"net_id"    db:"net_id"`
	Problem  string    `json:"problem"   db:"problem"`
	Notes    string    `json:"notes"     db:"notes"`
	JoinTime time.Time `json:"join_time" db:"join_time"`
}

// QueueEntryDetail is a queue entry joined with the waiting student's name,
// for the staff queue view.
type QueueEntryDetail struct {
	EventID   int64     `json:"event_id"   db:"event_id"`
	NetID     string    `json:"net_id"     db:"net_id"`
	Problem   string    `json:"problem"    db:"problem"`
	Notes     string    `json:"notes"      db:"notes"`
	JoinTime  time.Time `json:"join_time"  db:"join_time"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name"  db:"last_name"`
}

// JoinQueueRequest represents parameters to join an event queue.
type JoinQueueRequest struct {
	EventID int64  `json:"event_id"`
	NetID   string `json:"net_id"`
	Problem string `json:"problem"`
	Notes   string `json:"notes,omitempty"`
}

// Validate validates JoinQueueRequest.
func (r *JoinQueueRequest) Validate() error {
	if r.EventID <= 0 {
		return errors.New("event_id is required")
	}
	r.NetID = strings.TrimSpace(r.NetID)
	if r.NetID == "" {
		return errors.New("net_id is required")
	}
	r.Problem = strings.TrimSpace(r.Problem)
	if r.Problem == "" {
		return errors.New("problem is required")
	}
	if utf8.RuneCountInString(r.Problem) > maxProblemLen {
		return errors.New("problem cannot exceed 500 characters")
	}
	r.Notes = strings.TrimSpace(r.Notes)
	if utf8.RuneCountInString(r.Notes) > maxNotesLen {
		return errors.New("notes cannot exceed 2000 characters")
	}
	return nil
}
