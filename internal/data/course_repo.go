package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/courseq/courseq/internal/data/pgxutil"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

var (
	// ErrCourseNotFound is returned when a course is not found.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEntryCodeExists is returned when a course entry code is already taken.
	ErrEntryCodeExists = errors.New("entry code already exists")
	// ErrAlreadyMember is returned when adding a user who is already in the course.
	ErrAlreadyMember = errors.New("user is already a member of this course")
	// ErrMembershipNotFound is returned when the user has no role in the course.
	ErrMembershipNotFound = errors.New("course membership not found")
)

// CourseRepo provides database operations for courses and their rosters.
type CourseRepo struct {
	DB *sql.DB
}

// NewCourseRepo creates a new CourseRepo.
func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{DB: db}
}

const (
	courseColumns = `course_id, season, code, entry_code`

	courseGetByIDQuery = `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE course_id = $1`

	courseGetByEntryCodeQuery = `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE entry_code = $1`

	courseInsertQuery = `
		INSERT INTO courses (season, code, entry_code)
		VALUES ($1, $2, $3)
		RETURNING ` + courseColumns

	courseUpdateEntryCodeQuery = `
		UPDATE courses
		SET entry_code = $2
		WHERE course_id = $1
		RETURNING ` + courseColumns

	courseListForUserQuery = `
		SELECT c.course_id, c.season, c.code, cu.net_id, cu.role
		FROM courses c
		JOIN course_users cu ON cu.course_id = c.course_id
		WHERE cu.net_id = $1
		ORDER BY c.season DESC, c.code ASC`

	courseMemberRoleQuery = `
		SELECT role
		FROM course_users
		WHERE course_id = $1 AND net_id = $2`

	courseAddMemberQuery = `
		INSERT INTO course_users (course_id, net_id, role)
		VALUES ($1, $2, $3)`

	courseRosterQuery = `
		SELECT cu.course_id, cu.net_id, cu.role, u.first_name, u.last_name, u.email
		FROM course_users cu
		JOIN users u ON u.net_id = cu.net_id
		WHERE cu.course_id = $1
		ORDER BY cu.role ASC, u.last_name ASC, u.first_name ASC`
)

// Create inserts a new course.
func (r *CourseRepo) Create(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	if req == nil {
		return nil, errors.New("create course request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Course
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, courseInsertQuery, req.Season, req.Code, req.EntryCode)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// CreateWithInstructor inserts a course and its creator's instructor
// membership in one transaction. A failed enrollment rolls the course back,
// so a course can never appear without at least one staff member.
func (r *CourseRepo) CreateWithInstructor(
	ctx context.Context,
	req *model.CreateCourseRequest,
	instructorNetID string,
) (*model.Course, error) {
	if req == nil {
		return nil, errors.New("create course request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if instructorNetID == "" {
		return nil, apperrors.Validation("instructor net ID is required")
	}

	var out model.Course
	if err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, courseInsertQuery, req.Season, req.Code, req.EntryCode)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, courseAddMemberQuery, out.CourseID, instructorNetID, model.CourseRoleInstructor)
		return err
	}}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a course by ID.
func (r *CourseRepo) GetByID(ctx context.Context, courseID int64) (*model.Course, error) {
	return r.getByQuery(ctx, courseGetByIDQuery, "failed to get course by ID", courseID)
}

// GetByEntryCode retrieves a course by its entry code.
func (r *CourseRepo) GetByEntryCode(ctx context.Context, entryCode string) (*model.Course, error) {
	return r.getByQuery(ctx, courseGetByEntryCodeQuery, "failed to get course by entry code", entryCode)
}

// ListForUser retrieves the courses a user belongs to, with their role in each.
func (r *CourseRepo) ListForUser(ctx context.Context, netID string) ([]model.CourseMembership, error) {
	var out []model.CourseMembership
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, courseListForUserQuery, netID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.CourseMembership])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list courses for user: %w", err)
	}
	return out, nil
}

// MemberRole returns the user's role within a course.
func (r *CourseRepo) MemberRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error) {
	var role model.CourseRole
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, courseMemberRoleQuery, courseID, netID).Scan(&role)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrMembershipNotFound
		}
		return "", fmt.Errorf("failed to get course member role: %w", err)
	}
	return role, nil
}

// AddMember enrolls a user in a course with the given role.
func (r *CourseRepo) AddMember(ctx context.Context, member model.CourseUser) error {
	if !member.Role.Valid() {
		return apperrors.Validation("invalid course role")
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, courseAddMemberQuery, member.CourseID, member.NetID, member.Role)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyMember
		}
		return apperrors.MapDBError(err)
	}
	return nil
}

// Roster retrieves all members of a course joined with their user records.
func (r *CourseRepo) Roster(ctx context.Context, courseID int64) ([]model.RosterEntry, error) {
	var out []model.RosterEntry
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, courseRosterQuery, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RosterEntry])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to load course roster: %w", err)
	}
	return out, nil
}

// UpdateEntryCode replaces the course entry code.
func (r *CourseRepo) UpdateEntryCode(ctx context.Context, courseID int64, entryCode string) (*model.Course, error) {
	var out model.Course
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, courseUpdateEntryCodeQuery, courseID, entryCode)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		return err
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// getByQuery executes a single-course query.
func (r *CourseRepo) getByQuery(ctx context.Context, q, errMsg string, args ...any) (*model.Course, error) {
	var course model.Course
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		course, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return &course, nil
}

func (r *CourseRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrCourseNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEntryCodeExists
	}
	return apperrors.MapDBError(err)
}
