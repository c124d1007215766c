package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/courseq/courseq/internal/data/pgxutil"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// ErrEventNotFound is returned when an office hours session is not found.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides database operations for office hours sessions.
type EventRepo struct {
	DB *sql.DB
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{DB: db}
}

const (
	eventColumns = `event_id, course_id, helper, start_time, end_time, location`

	eventGetByIDQuery = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE event_id = $1`

	eventInsertQuery = `
		INSERT INTO events (course_id, helper, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + eventColumns

	eventListForCourseQuery = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE course_id = $1
		ORDER BY start_time ASC`

	eventListWindowQuery = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE course_id = $1 AND end_time > $2 AND start_time < $3
		ORDER BY start_time ASC`

	eventActiveForCourseQuery = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE course_id = $1 AND start_time <= $2 AND end_time > $2
		ORDER BY start_time ASC
		LIMIT 1`

	eventDeleteQuery = `
		DELETE FROM events
		WHERE event_id = $1`
)

// Create inserts a new office hours session.
func (r *EventRepo) Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, eventInsertQuery,
			req.CourseID,
			req.Helper,
			req.StartTime,
			req.EndTime,
			req.Location,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves an office hours session by ID.
func (r *EventRepo) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, eventGetByIDQuery, eventID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return &out, nil
}

// ListForCourse retrieves a course's office hours sessions ordered by start
// time. When opts carries a window, only sessions overlapping it are returned.
func (r *EventRepo) ListForCourse(ctx context.Context, courseID int64, opts model.EventsListOptions) ([]model.Event, error) {
	query := eventListForCourseQuery
	args := []any{courseID}
	if !opts.From.IsZero() || !opts.To.IsZero() {
		from, to := opts.From, opts.To
		if to.IsZero() {
			// Effectively unbounded upper edge.
			to = from.AddDate(100, 0, 0)
		}
		query = eventListWindowQuery
		args = append(args, from, to)
	}

	var out []model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list events for course: %w", err)
	}
	return out, nil
}

// ActiveForCourse returns the session currently in progress for the course,
// or nil when none is running.
func (r *EventRepo) ActiveForCourse(ctx context.Context, courseID int64, at time.Time) (*model.Event, error) {
	var out model.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, eventActiveForCourseQuery, courseID, at)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active event: %w", err)
	}
	return &out, nil
}

// Delete removes an office hours session and, via cascade, its queue.
func (r *EventRepo) Delete(ctx context.Context, eventID int64) error {
	var removed int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, eventDeleteQuery, eventID)
		if err != nil {
			return err
		}
		removed = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if removed == 0 {
		return ErrEventNotFound
	}
	return nil
}
