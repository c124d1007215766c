package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen   = 100
	maxEmailLen  = 255
	minClassYear = 1900
	maxClassYear = 2200
)

// DefaultTimeZone is applied to users who do not pick a time zone during onboarding.
const DefaultTimeZone = "America/New_York"

// UserRole is the site-wide role of a user.
type UserRole string

const (
	UserRoleStudent    UserRole = "student"
	UserRoleInstructor UserRole = "instructor"
	UserRoleAdmin      UserRole = "admin"
)

// Valid reports whether the user role is supported.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleInstructor, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// ParseUserRole normalizes a role string and reports whether it is supported.
func ParseUserRole(value string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// User is an application user keyed by campus net ID. Created on first
// successful onboarding or auto-provisioned from a directory lookup;
// the login flow never updates an existing record.
type User struct {
	NetID     string   `json:"net_id"         db:"net_id"`
	FirstName string   `json:"first_name"     db:"first_name"`
	LastName  string   `json:"last_name"      db:"last_name"`
	Email     string   `json:"email"          db:"email"`
	Year      *int     `json:"year,omitempty" db:"year"`
	TimeZone  string   `json:"time_zone"      db:"time_zone"`
	Role      UserRole `json:"role"           db:"role"`
}

// CreateUserRequest represents parameters to create a User.
type CreateUserRequest struct {
	NetID     string   `json:"net_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Year      *int     `json:"year,omitempty"`
	TimeZone  string   `json:"time_zone,omitempty"`
	Role      UserRole `json:"role,omitempty"`
}

// Validate validates CreateUserRequest and normalizes defaults.
func (r *CreateUserRequest) Validate() error {
	r.NetID = strings.TrimSpace(r.NetID)
	if r.NetID == "" {
		return errors.New("net_id is required")
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	if r.FirstName == "" {
		return errors.New("first_name is required")
	}
	if utf8.RuneCountInString(r.FirstName) > maxNameLen {
		return errors.New("first_name cannot exceed 100 characters")
	}
	r.LastName = strings.TrimSpace(r.LastName)
	if r.LastName == "" {
		return errors.New("last_name is required")
	}
	if utf8.RuneCountInString(r.LastName) > maxNameLen {
		return errors.New("last_name cannot exceed 100 characters")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if utf8.RuneCountInString(r.Email) > maxEmailLen {
		return errors.New("email cannot exceed 255 characters")
	}
	if r.Year != nil && (*r.Year < minClassYear || *r.Year > maxClassYear) {
		return errors.New("year is out of range")
	}
	if strings.TrimSpace(r.TimeZone) == "" {
		r.TimeZone = DefaultTimeZone
	}
	if r.Role == "" {
		r.Role = UserRoleStudent
	}
	if !r.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
