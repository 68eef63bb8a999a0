package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, which for seat assignments always indicates a planner defect.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

// SeatAssignmentRepository owns all mutation of seat assignment rows. Rows
// for a scope are only ever rewritten wholesale inside one transaction.
type SeatAssignmentRepository struct {
	db *sqlx.DB
}

// NewSeatAssignmentRepository constructs a SeatAssignmentRepository.
func NewSeatAssignmentRepository(db *sqlx.DB) *SeatAssignmentRepository {
	return &SeatAssignmentRepository{db: db}
}

func (r *SeatAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ReplaceScope deletes every assignment for the scope and inserts the new
// rows. Callers must pass the run transaction so the delete and inserts
// commit or roll back as one unit; rows for other scopes are never touched.
func (r *SeatAssignmentRepository) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, scopeKey string, rows []models.SeatAssignment) error {
	target := r.exec(exec)

	if _, err := target.ExecContext(ctx, "DELETE FROM seat_assignments WHERE scope_key = $1", scopeKey); err != nil {
		return fmt.Errorf("clear scope %s: %w", scopeKey, err)
	}

	now := time.Now().UTC()
	const query = `
INSERT INTO seat_assignments (id, scope_key, student_id, roll_no, room_no, seat_number, group_key, subject_id, created_at)
VALUES (:id, :scope_key, :student_id, :roll_no, :room_no, :seat_number, :group_key, :subject_id, :created_at)`

	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.ScopeKey = scopeKey
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("insert seat assignment: %w", err)
		}
	}
	return nil
}

// ListByScope returns a scope's assignments ordered by room and seat.
func (r *SeatAssignmentRepository) ListByScope(ctx context.Context, scopeKey string) ([]models.SeatAssignment, error) {
	const query = `SELECT id, scope_key, student_id, roll_no, room_no, seat_number, group_key, subject_id, created_at
FROM seat_assignments WHERE scope_key = $1 ORDER BY room_no ASC, seat_number ASC`
	var rows []models.SeatAssignment
	if err := r.db.SelectContext(ctx, &rows, query, scopeKey); err != nil {
		return nil, fmt.Errorf("list seat assignments: %w", err)
	}
	return rows, nil
}

// ListByRoom returns one room's assignments for a scope, seat order.
func (r *SeatAssignmentRepository) ListByRoom(ctx context.Context, scopeKey, roomNo string) ([]models.SeatAssignment, error) {
	const query = `SELECT id, scope_key, student_id, roll_no, room_no, seat_number, group_key, subject_id, created_at
FROM seat_assignments WHERE scope_key = $1 AND room_no = $2 ORDER BY seat_number ASC`
	var rows []models.SeatAssignment
	if err := r.db.SelectContext(ctx, &rows, query, scopeKey, roomNo); err != nil {
		return nil, fmt.Errorf("list room assignments: %w", err)
	}
	return rows, nil
}

// DistinctRooms returns the rooms that received at least one assignment in
// the scope, in stable room-number order for the coverage pass.
func (r *SeatAssignmentRepository) DistinctRooms(ctx context.Context, scopeKey string) ([]string, error) {
	const query = `SELECT DISTINCT room_no FROM seat_assignments WHERE scope_key = $1 ORDER BY room_no ASC`
	var rooms []string
	if err := r.db.SelectContext(ctx, &rooms, query, scopeKey); err != nil {
		return nil, fmt.Errorf("list occupied rooms: %w", err)
	}
	return rooms, nil
}

// CountByScope returns how many assignments a scope currently holds.
func (r *SeatAssignmentRepository) CountByScope(ctx context.Context, scopeKey string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM seat_assignments WHERE scope_key = $1", scopeKey); err != nil {
		return 0, fmt.Errorf("count seat assignments: %w", err)
	}
	return count, nil
}
