// Package devseed populates a development database with a small, recognizable
// data set: a handful of users, one course with a roster, and office hours
// sessions spanning the current week. It never runs outside dev mode.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/domain/model"
)

// Services bundles the repositories needed for development seeding.
type Services struct {
	DB      *sql.DB
	users   *data.UserRepo
	courses *data.CourseRepo
	events  *data.EventRepo
	queue   *data.QueueRepo
}

// NewServices constructs the repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:      db,
		users:   data.NewUserRepo(db),
		courses: data.NewCourseRepo(db),
		events:  data.NewEventRepo(db),
		queue:   data.NewQueueRepo(db),
	}
}

const seedEntryCode = "dev-office-hours"

// Run seeds the development data set. It is idempotent: a database that
// already contains the seed course is left untouched.
func Run(ctx context.Context, svc Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := svc.courses.GetByEntryCode(ctx, seedEntryCode); err == nil {
		logger.InfoContext(ctx, "dev seed already present, skipping")
		return nil
	} else if !errors.Is(err, data.ErrCourseNotFound) {
		return fmt.Errorf("check existing seed: %w", err)
	}

	if err := seedUsers(ctx, svc); err != nil {
		return err
	}

	course, err := svc.courses.Create(ctx, &model.CreateCourseRequest{
		Season:    "Fall 2026",
		Code:      "CS 2110",
		EntryCode: seedEntryCode,
	})
	if err != nil {
		return fmt.Errorf("seed course: %w", err)
	}

	roster := []model.CourseUser{
		{CourseID: course.CourseID, NetID: "prof1", Role: model.CourseRoleInstructor},
		{CourseID: course.CourseID, NetID: "ula1", Role: model.CourseRoleULA},
		{CourseID: course.CourseID, NetID: "stu1", Role: model.CourseRoleStudent},
		{CourseID: course.CourseID, NetID: "stu2", Role: model.CourseRoleStudent},
	}
	for _, member := range roster {
		if err = svc.courses.AddMember(ctx, member); err != nil {
			return fmt.Errorf("seed roster %s: %w", member.NetID, err)
		}
	}

	if err = seedEvents(ctx, svc, course.CourseID, logger); err != nil {
		return err
	}

	logger.InfoContext(ctx, "dev seed complete",
		"course_id", course.CourseID,
		"entry_code", seedEntryCode)
	return nil
}

func seedUsers(ctx context.Context, svc Services) error {
	year := 2028
	users := []model.CreateUserRequest{
		{NetID: "prof1", FirstName: "Ada", LastName: "Instructor", Email: "prof1@example.edu", Role: model.UserRoleInstructor},
		{NetID: "ula1", FirstName: "Uli", LastName: "Assistant", Email: "ula1@example.edu", Year: &year},
		{NetID: "stu1", FirstName: "Sam", LastName: "Student", Email: "stu1@example.edu", Year: &year},
		{NetID: "stu2", FirstName: "Sky", LastName: "Student", Email: "stu2@example.edu", Year: &year},
	}
	for i := range users {
		if _, err := svc.users.Create(ctx, &users[i]); err != nil {
			// Users may survive a dropped seed course.
			if errors.Is(err, data.ErrUserExists) {
				continue
			}
			return fmt.Errorf("seed user %s: %w", users[i].NetID, err)
		}
	}
	return nil
}

// seedEvents creates one session running right now plus one each on the next
// two days, so the queue page has something to show immediately.
func seedEvents(ctx context.Context, svc Services, courseID int64, logger *slog.Logger) error {
	now := time.Now().Truncate(time.Hour)
	sessions := []model.CreateEventRequest{
		{CourseID: courseID, Helper: "ula1", StartTime: now.Add(-time.Hour), EndTime: now.Add(2 * time.Hour), Location: "Rhodes 574"},
		{CourseID: courseID, Helper: "ula1", StartTime: now.Add(24 * time.Hour), EndTime: now.Add(26 * time.Hour), Location: "Rhodes 574"},
		{CourseID: courseID, Helper: "prof1", StartTime: now.Add(48 * time.Hour), EndTime: now.Add(50 * time.Hour), Location: "Gates G01"},
	}

	var active *model.Event
	for i := range sessions {
		event, err := svc.events.Create(ctx, &sessions[i])
		if err != nil {
			return fmt.Errorf("seed event: %w", err)
		}
		if i == 0 {
			active = event
		}
	}

	if _, err := svc.queue.Join(ctx, &model.JoinQueueRequest{
		EventID: active.EventID,
		NetID:   "stu1",
		Problem: "stuck on part 3 of the maze assignment",
	}); err != nil {
		return fmt.Errorf("seed queue entry: %w", err)
	}

	logger.InfoContext(ctx, "dev seed events created", "count", len(sessions), "active_event_id", active.EventID)
	return nil
}
