package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// StudentRepository reads the roster supplied by the registration module.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListForAllocation returns the roster snapshot for a run, ordered by roll
// number so downstream grouping is deterministic. Pass the run transaction
// as exec for a point-in-time read.
func (r *StudentRepository) ListForAllocation(ctx context.Context, exec sqlx.ExtContext, filter models.StudentFilter) ([]models.Student, error) {
	query := "SELECT id, roll_no, full_name, department, academic_year, created_at, updated_at FROM students"
	conditions := []string{}
	args := []interface{}{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.AcademicYear > 0 {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY roll_no ASC"

	var students []models.Student
	if err := sqlx.SelectContext(ctx, r.exec(exec), &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
