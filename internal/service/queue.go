package service

import (
	"context"
	"errors"
	"time"

	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// QueueStore is the slice of the queue repository the services need.
type QueueStore interface {
	Join(ctx context.Context, req *model.JoinQueueRequest) (*model.QueueEntry, error)
	Leave(ctx context.Context, eventID int64, netID string) error
	ListForEvent(ctx context.Context, eventID int64) ([]model.QueueEntryDetail, error)
	Position(ctx context.Context, eventID int64, netID string) (int, error)
}

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Courses CourseStore
	Events  EventStore
	Queue   QueueStore
}

// QueueService implements the help queue of the currently running session.
type QueueService struct {
	courses CourseStore
	events  EventStore
	queue   QueueStore
}

// NewQueueService constructs a new QueueService.
func NewQueueService(opts QueueServiceOptions) *QueueService {
	return &QueueService{courses: opts.Courses, events: opts.Events, queue: opts.Queue}
}

// QueueView is the queue page model: the running session, the waiting
// students, and where the viewer stands. Position is 0 when the viewer is not
// on the queue, and Event is nil when no session is running.
type QueueView struct {
	Event    *model.Event
	Entries  []model.QueueEntryDetail
	Role     model.CourseRole
	Position int
}

// memberRole resolves the viewer's role or rejects non-members.
func (s *QueueService) memberRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error) {
	role, err := s.courses.MemberRole(ctx, courseID, netID)
	if err != nil {
		if errors.Is(err, data.ErrMembershipNotFound) {
			return "", apperrors.Unauthorized("not a member of this course")
		}
		return "", err
	}
	return role, nil
}

// activeEvent finds the session running now, or a validation error when the
// course has no office hours in progress.
func (s *QueueService) activeEvent(ctx context.Context, courseID int64, now time.Time) (*model.Event, error) {
	ev, err := s.events.ActiveForCourse(ctx, courseID, now)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperrors.Validation("no office hours session is currently running")
	}
	return ev, nil
}

// View loads the queue page for a member.
func (s *QueueService) View(ctx context.Context, courseID int64, netID string, now time.Time) (*QueueView, error) {
	role, err := s.memberRole(ctx, courseID, netID)
	if err != nil {
		return nil, err
	}

	ev, err := s.events.ActiveForCourse(ctx, courseID, now)
	if err != nil {
		return nil, err
	}
	view := &QueueView{Role: role}
	if ev == nil {
		return view, nil
	}
	view.Event = ev

	entries, err := s.queue.ListForEvent(ctx, ev.EventID)
	if err != nil {
		return nil, err
	}
	view.Entries = entries

	pos, err := s.queue.Position(ctx, ev.EventID, netID)
	if err != nil && !errors.Is(err, data.ErrQueueEntryNotFound) {
		return nil, err
	}
	view.Position = pos
	return view, nil
}

// Join puts the member on the running session's queue.
func (s *QueueService) Join(ctx context.Context, courseID int64, netID, problem, notes string, now time.Time) (*model.QueueEntry, error) {
	if _, err := s.memberRole(ctx, courseID, netID); err != nil {
		return nil, err
	}
	ev, err := s.activeEvent(ctx, courseID, now)
	if err != nil {
		return nil, err
	}

	entry, err := s.queue.Join(ctx, &model.JoinQueueRequest{
		EventID: ev.EventID,
		NetID:   netID,
		Problem: problem,
		Notes:   notes,
	})
	if err != nil {
		if errors.Is(err, data.ErrAlreadyQueued) {
			return nil, apperrors.Conflict("you are already on the queue")
		}
		return nil, err
	}
	return entry, nil
}

// Leave removes the member's own entry from the running session's queue.
func (s *QueueService) Leave(ctx context.Context, courseID int64, netID string, now time.Time) error {
	if _, err := s.memberRole(ctx, courseID, netID); err != nil {
		return err
	}
	ev, err := s.activeEvent(ctx, courseID, now)
	if err != nil {
		return err
	}

	if err := s.queue.Leave(ctx, ev.EventID, netID); err != nil {
		if errors.Is(err, data.ErrQueueEntryNotFound) {
			return apperrors.NotFound("Queue Entry not found")
		}
		return err
	}
	return nil
}

// Remove takes another student off the queue; staff only.
func (s *QueueService) Remove(ctx context.Context, courseID int64, actorNetID, targetNetID string, now time.Time) error {
	role, err := s.memberRole(ctx, courseID, actorNetID)
	if err != nil {
		return err
	}
	if !role.IsStaff() {
		return apperrors.Unauthorized("course staff only")
	}
	ev, err := s.activeEvent(ctx, courseID, now)
	if err != nil {
		return err
	}

	if err := s.queue.Leave(ctx, ev.EventID, targetNetID); err != nil {
		if errors.Is(err, data.ErrQueueEntryNotFound) {
			return apperrors.NotFound("Queue Entry not found")
		}
		return err
	}
	return nil
}
