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
	// ErrAlreadyQueued is returned when a student is already on the queue.
	ErrAlreadyQueued = errors.New("already on the queue")
	// ErrQueueEntryNotFound is returned when the student has no queue entry.
	ErrQueueEntryNotFound = errors.New("queue entry not found")
)

// QueueRepo provides database operations for per-session help queues.
type QueueRepo struct {
	DB *sql.DB
}

// NewQueueRepo creates a new QueueRepo.
func NewQueueRepo(db *sql.DB) *QueueRepo {
	return &QueueRepo{DB: db}
}

const (
	queueJoinQuery = `
		INSERT INTO queue_entries (event_id, net_id, problem, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING event_id, net_id, problem, notes, join_time`

	queueLeaveQuery = `
		DELETE FROM queue_entries
		WHERE event_id = $1 AND net_id = $2`

	queueListForEventQuery = `
		SELECT q.event_id, q.net_id, q.problem, q.notes, q.join_time,
		       u.first_name, u.last_name
		FROM queue_entries q
		JOIN users u ON u.net_id = q.net_id
		WHERE q.event_id = $1
		ORDER BY q.join_time ASC, q.net_id ASC`

	queuePositionQuery = `
		SELECT pos FROM (
			SELECT net_id,
			       ROW_NUMBER() OVER (ORDER BY join_time ASC, net_id ASC) AS pos
			FROM queue_entries
			WHERE event_id = $1
		) ranked
		WHERE net_id = $2`
)

// Join appends a student to a session's queue. The database assigns the join
// time, so ordering is decided by the insert, not the caller's clock.
func (r *QueueRepo) Join(ctx context.Context, req *model.JoinQueueRequest) (*model.QueueEntry, error) {
	if req == nil {
		return nil, errors.New("join queue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.QueueEntry
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, queueJoinQuery, req.EventID, req.NetID, req.Problem, req.Notes)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.QueueEntry])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyQueued
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Leave removes a student from a session's queue.
func (r *QueueRepo) Leave(ctx context.Context, eventID int64, netID string) error {
	var removed int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, queueLeaveQuery, eventID, netID)
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
		return ErrQueueEntryNotFound
	}
	return nil
}

// ListForEvent retrieves the queue in join order with student names attached.
func (r *QueueRepo) ListForEvent(ctx context.Context, eventID int64) ([]model.QueueEntryDetail, error) {
	var out []model.QueueEntryDetail
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, queueListForEventQuery, eventID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.QueueEntryDetail])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return out, nil
}

// Position returns the student's 1-based place in the queue.
func (r *QueueRepo) Position(ctx context.Context, eventID int64, netID string) (int, error) {
	var pos int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, queuePositionQuery, eventID, netID).Scan(&pos)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrQueueEntryNotFound
		}
		return 0, fmt.Errorf("failed to compute queue position: %w", err)
	}
	return pos, nil
}
