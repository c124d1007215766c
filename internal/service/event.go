package service

import (
	"context"
	"errors"
	"time"

	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// EventServiceOptions groups dependencies for EventService.
type EventServiceOptions struct {
	Courses CourseStore
	Events  EventStore
}

// EventService implements office hours session scheduling.
type EventService struct {
	courses CourseStore
	events  EventStore
}

// NewEventService constructs a new EventService.
func NewEventService(opts EventServiceOptions) *EventService {
	return &EventService{courses: opts.Courses, events: opts.Events}
}

// Week returns the course's sessions overlapping the seven days starting at
// weekStart.
func (s *EventService) Week(ctx context.Context, courseID int64, weekStart time.Time) ([]model.Event, error) {
	return s.events.ListForCourse(ctx, courseID, model.EventsListOptions{
		From: weekStart,
		To:   weekStart.AddDate(0, 0, 7),
	})
}

// Get retrieves a session and checks it belongs to the course in the URL.
func (s *EventService) Get(ctx context.Context, courseID, eventID int64) (*model.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, data.ErrEventNotFound) {
			return nil, apperrors.NotFound("Office Hours Session not found")
		}
		return nil, err
	}
	if ev.CourseID != courseID {
		return nil, apperrors.NotFound("Office Hours Session not found")
	}
	return ev, nil
}

// Create schedules a session; staff only. The helper defaults to the actor.
func (s *EventService) Create(ctx context.Context, actorNetID string, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	role, err := s.courses.MemberRole(ctx, req.CourseID, actorNetID)
	if err != nil {
		if errors.Is(err, data.ErrMembershipNotFound) {
			return nil, apperrors.Unauthorized("not a member of this course")
		}
		return nil, err
	}
	if !role.IsStaff() {
		return nil, apperrors.Unauthorized("course staff only")
	}
	if req.Helper == "" {
		req.Helper = actorNetID
	}
	return s.events.Create(ctx, req)
}

// Delete cancels a session and discards its queue; staff only.
func (s *EventService) Delete(ctx context.Context, courseID int64, actorNetID string, eventID int64) error {
	role, err := s.courses.MemberRole(ctx, courseID, actorNetID)
	if err != nil {
		if errors.Is(err, data.ErrMembershipNotFound) {
			return apperrors.Unauthorized("not a member of this course")
		}
		return err
	}
	if !role.IsStaff() {
		return apperrors.Unauthorized("course staff only")
	}
	if _, err := s.Get(ctx, courseID, eventID); err != nil {
		return err
	}
	return s.events.Delete(ctx, eventID)
}
