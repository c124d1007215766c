package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// CourseStore is the slice of the course repository the services need.
type CourseStore interface {
	CreateWithInstructor(ctx context.Context, req *model.CreateCourseRequest, instructorNetID string) (*model.Course, error)
	GetByID(ctx context.Context, courseID int64) (*model.Course, error)
	GetByEntryCode(ctx context.Context, entryCode string) (*model.Course, error)
	ListForUser(ctx context.Context, netID string) ([]model.CourseMembership, error)
	AddMember(ctx context.Context, member model.CourseUser) error
	MemberRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error)
	Roster(ctx context.Context, courseID int64) ([]model.RosterEntry, error)
	UpdateEntryCode(ctx context.Context, courseID int64, entryCode string) (*model.Course, error)
}

// EventStore is the slice of the event repository the services need.
type EventStore interface {
	Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error)
	GetByID(ctx context.Context, eventID int64) (*model.Event, error)
	ListForCourse(ctx context.Context, courseID int64, opts model.EventsListOptions) ([]model.Event, error)
	ActiveForCourse(ctx context.Context, courseID int64, at time.Time) (*model.Event, error)
	Delete(ctx context.Context, eventID int64) error
}

// CourseServiceOptions groups dependencies for CourseService.
type CourseServiceOptions struct {
	Courses CourseStore
	Events  EventStore
}

// CourseService implements course enrollment and management flows.
type CourseService struct {
	courses CourseStore
	events  EventStore
}

// NewCourseService constructs a new CourseService.
func NewCourseService(opts CourseServiceOptions) *CourseService {
	return &CourseService{courses: opts.Courses, events: opts.Events}
}

// ListForUser returns the user's course memberships for the dashboard.
func (s *CourseService) ListForUser(ctx context.Context, netID string) ([]model.CourseMembership, error) {
	return s.courses.ListForUser(ctx, netID)
}

// JoinByEntryCode enrolls the user as a student in the course whose entry
// code matches. An unknown code reads as "course not found" rather than
// leaking whether the code exists.
func (s *CourseService) JoinByEntryCode(ctx context.Context, netID, entryCode string) (*model.Course, error) {
	course, err := s.courses.GetByEntryCode(ctx, entryCode)
	if err != nil {
		if errors.Is(err, data.ErrCourseNotFound) {
			return nil, apperrors.NotFound("Course not found")
		}
		return nil, err
	}

	err = s.courses.AddMember(ctx, model.CourseUser{
		CourseID: course.CourseID,
		NetID:    netID,
		Role:     model.CourseRoleStudent,
	})
	if err != nil && !errors.Is(err, data.ErrAlreadyMember) {
		return nil, err
	}
	return course, nil
}

// Create creates a course with the creator enrolled as its instructor. The
// store performs both writes in one transaction, so a course never exists
// without staff.
func (s *CourseService) Create(ctx context.Context, creatorNetID string, req *model.CreateCourseRequest) (*model.Course, error) {
	course, err := s.courses.CreateWithInstructor(ctx, req, creatorNetID)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// CourseDetail is everything the course overview page needs.
type CourseDetail struct {
	Course *model.Course
	Role   model.CourseRole
	Events []model.Event
}

// Detail loads the course, the viewer's role, and the events in the window in
// parallel. Non-members get an unauthorized error, not the course contents.
func (s *CourseService) Detail(ctx context.Context, courseID int64, netID string, window model.EventsListOptions) (*CourseDetail, error) {
	detail := &CourseDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		course, err := s.courses.GetByID(gctx, courseID)
		if err != nil {
			if errors.Is(err, data.ErrCourseNotFound) {
				return apperrors.NotFound("Course not found")
			}
			return err
		}
		detail.Course = course
		return nil
	})
	g.Go(func() error {
		role, err := s.courses.MemberRole(gctx, courseID, netID)
		if err != nil {
			if errors.Is(err, data.ErrMembershipNotFound) {
				return apperrors.Unauthorized("not a member of this course")
			}
			return err
		}
		detail.Role = role
		return nil
	})
	g.Go(func() error {
		events, err := s.events.ListForCourse(gctx, courseID, window)
		if err != nil {
			return err
		}
		detail.Events = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// StaffRole returns the user's role if it can manage the course, or an
// unauthorized error.
func (s *CourseService) StaffRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error) {
	role, err := s.courses.MemberRole(ctx, courseID, netID)
	if err != nil {
		if errors.Is(err, data.ErrMembershipNotFound) {
			return "", apperrors.Unauthorized("not a member of this course")
		}
		return "", err
	}
	if !role.IsStaff() {
		return "", apperrors.Unauthorized("course staff only")
	}
	return role, nil
}

// Roster returns the course roster; staff only.
func (s *CourseService) Roster(ctx context.Context, courseID int64, netID string) ([]model.RosterEntry, error) {
	if _, err := s.StaffRole(ctx, courseID, netID); err != nil {
		return nil, err
	}
	return s.courses.Roster(ctx, courseID)
}

// RotateEntryCode replaces the course entry code; staff only.
func (s *CourseService) RotateEntryCode(ctx context.Context, courseID int64, netID, entryCode string) (*model.Course, error) {
	if _, err := s.StaffRole(ctx, courseID, netID); err != nil {
		return nil, err
	}
	course, err := s.courses.UpdateEntryCode(ctx, courseID, entryCode)
	if err != nil {
		if errors.Is(err, data.ErrEntryCodeExists) {
			return nil, apperrors.Conflict("entry code is already in use")
		}
		return nil, err
	}
	return course, nil
}
