package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxCourseCodeLen = 32
	maxSeasonLen     = 32
	maxEntryCodeLen  = 64
)

// CourseRole is a user's role within a single course.
type CourseRole string

const (
	CourseRoleStudent    CourseRole = "student"
	CourseRoleULA        CourseRole = "ula"
	CourseRoleInstructor CourseRole = "instructor"
)

// Valid reports whether the course role is supported.
func (r CourseRole) Valid() bool {
	switch r {
	case CourseRoleStudent, CourseRoleULA, CourseRoleInstructor:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role can manage the course (events, queue, settings).
func (r CourseRole) IsStaff() bool {
	return r == CourseRoleULA || r == CourseRoleInstructor
}

// ParseCourseRole normalizes a course role string and reports whether it is supported.
func ParseCourseRole(value string) (CourseRole, bool) {
	role := CourseRole(strings.ToLower(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// Course is one offering of a class, e.g. CPSC 223 in Spring 2026.
type Course struct {
	CourseID  int64  `json:"course_id"  db:"course_id"`
	Season    string `json:"season"     db:"season"`
	Code      string `json:"code"       db:"code"`
	EntryCode string `json:"entry_code" db:"entry_code"`
}

// CourseMembership pairs a course with the viewing user's role in it.
type CourseMembership struct {
	CourseID int64      `json:"course_id" db:"course_id"`
	Season   string     `json:"season"    db:"season"`
	Code     string     `json:"code"      db:"code"`
	NetID    string     `json:"net_id"    db:"net_id"`
	Role     CourseRole `json:"role"      db:"role"`
}

// CourseUser is a membership row linking a user to a course.
type CourseUser struct {
	CourseID int64      `json:"course_id" db:"course_id"`
	NetID    string     `json:"net_id"    db:"net_id"`
	Role     CourseRole `json:"role"      db:"role"`
}

// RosterEntry is a course member joined with their user record, for the settings page.
type RosterEntry struct {
	CourseID  int64      `json:"course_id"  db:"course_id"`
	NetID     string     `json:"net_id"     db:"net_id"`
	Role      CourseRole `json:"role"       db:"role"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name"  db:"last_name"`
	Email     string     `json:"email"      db:"email"`
}

// CreateCourseRequest represents parameters to create a Course.
type CreateCourseRequest struct {
	Season    string `json:"season"`
	Code      string `json:"code"`
	EntryCode string `json:"entry_code"`
}

// Validate validates CreateCourseRequest.
func (r *CreateCourseRequest) Validate() error {
	r.Season = strings.TrimSpace(r.Season)
	if r.Season == "" {
		return errors.New("season is required")
	}
	if utf8.RuneCountInString(r.Season) > maxSeasonLen {
		return errors.New("season cannot exceed 32 characters")
	}
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return errors.New("code is required")
	}
	if utf8.RuneCountInString(r.Code) > maxCourseCodeLen {
		return errors.New("code cannot exceed 32 characters")
	}
	r.EntryCode = strings.TrimSpace(r.EntryCode)
	if r.EntryCode == "" {
		return errors.New("entry_code is required")
	}
	if utf8.RuneCountInString(r.EntryCode) > maxEntryCodeLen {
		return errors.New("entry_code cannot exceed 64 characters")
	}
	return nil
}
