package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// SubjectRepository reads subjects and department-subject mappings.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListMappings returns every department-subject association, ordered for
// deterministic validation output.
func (r *SubjectRepository) ListMappings(ctx context.Context, exec sqlx.ExtContext) ([]models.DepartmentSubjectMapping, error) {
	const query = `SELECT id, department, subject_id, created_at FROM department_subject_mappings ORDER BY department ASC, subject_id ASC`
	var mappings []models.DepartmentSubjectMapping
	if err := sqlx.SelectContext(ctx, r.exec(exec), &mappings, query); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}

// ListSubjectsByIDs fetches subject metadata for the mapped subjects.
func (r *SubjectRepository) ListSubjectsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, code, name, exam_date, start_time, end_time, created_at, updated_at FROM subjects WHERE id = ANY($1) ORDER BY code ASC`
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &subjects, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
