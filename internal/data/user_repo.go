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
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user whose net ID is taken.
	ErrUserExists = errors.New("user already exists")
)

// UserRepo provides database operations for users.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const (
	userColumns = `net_id, first_name, last_name, email, year, time_zone, role`

	userGetByNetIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE net_id = $1`

	userInsertQuery = `
		INSERT INTO users (net_id, first_name, last_name, email, year, time_zone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
)

// Create inserts a new user. The login flow only ever inserts; an existing
// record is never updated from directory or onboarding data.
func (r *UserRepo) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userInsertQuery,
			req.NetID,
			req.FirstName,
			req.LastName,
			req.Email,
			req.Year,
			req.TimeZone,
			req.Role,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByNetID retrieves a user by net ID.
func (r *UserRepo) GetByNetID(ctx context.Context, netID string) (*model.User, error) {
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userGetByNetIDQuery, netID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by net ID: %w", err)
	}
	return &out, nil
}
