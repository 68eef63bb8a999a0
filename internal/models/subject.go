package models

import "time"

// Subject represents one scheduled examination paper.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	ExamDate  time.Time `db:"exam_date" json:"exam_date"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentSubjectMapping associates a department with a subject for an
// exam. One department may map to several subjects as long as their windows
// do not overlap.
type DepartmentSubjectMapping struct {
	ID         string    `db:"id" json:"id"`
	Department string    `db:"department" json:"department"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
