package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// InvigilatorRepository manages the invigilator pool and room coverage.
type InvigilatorRepository struct {
	db *sqlx.DB
}

// NewInvigilatorRepository constructs an InvigilatorRepository.
func NewInvigilatorRepository(db *sqlx.DB) *InvigilatorRepository {
	return &InvigilatorRepository{db: db}
}

// ListUnassigned returns invigilators without a room in the scope, in
// registration order so coverage assignment is stable across retries.
func (r *InvigilatorRepository) ListUnassigned(ctx context.Context, scopeKey string) ([]models.Invigilator, error) {
	const query = `SELECT i.id, i.full_name, i.created_at, i.updated_at
FROM invigilators i
LEFT JOIN invigilator_assignments a ON a.invigilator_id = i.id AND a.scope_key = $1
WHERE a.id IS NULL
ORDER BY i.created_at ASC, i.id ASC`
	var pool []models.Invigilator
	if err := r.db.SelectContext(ctx, &pool, query, scopeKey); err != nil {
		return nil, fmt.Errorf("list unassigned invigilators: %w", err)
	}
	return pool, nil
}

// UpsertAssignment writes one room's coverage, replacing any previous
// holder of the (scope, room) slot.
func (r *InvigilatorRepository) UpsertAssignment(ctx context.Context, assignment *models.InvigilatorAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO invigilator_assignments (id, scope_key, invigilator_id, room_no, assigned_at)
VALUES (:id, :scope_key, :invigilator_id, :room_no, :assigned_at)
ON CONFLICT (scope_key, room_no) DO UPDATE
SET invigilator_id = EXCLUDED.invigilator_id,
    assigned_at = EXCLUDED.assigned_at`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("upsert invigilator assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes a room's coverage for a scope; administrators
// use this between runs.
func (r *InvigilatorRepository) DeleteAssignment(ctx context.Context, scopeKey, roomNo string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM invigilator_assignments WHERE scope_key = $1 AND room_no = $2", scopeKey, roomNo); err != nil {
		return fmt.Errorf("delete invigilator assignment: %w", err)
	}
	return nil
}

// ListAssignments returns a scope's coverage ordered by room number.
func (r *InvigilatorRepository) ListAssignments(ctx context.Context, scopeKey string) ([]models.InvigilatorAssignment, error) {
	const query = `SELECT id, scope_key, invigilator_id, room_no, assigned_at
FROM invigilator_assignments WHERE scope_key = $1 ORDER BY room_no ASC`
	var assignments []models.InvigilatorAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, scopeKey); err != nil {
		return nil, fmt.Errorf("list invigilator assignments: %w", err)
	}
	return assignments, nil
}
