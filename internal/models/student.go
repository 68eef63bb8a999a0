package models

import "time"

// Student represents an examinee supplied by the roster collaborator.
// Records are immutable for allocation purposes.
type Student struct {
	ID           string    `db:"id" json:"id"`
	RollNo       string    `db:"roll_no" json:"roll_no"`
	FullName     string    `db:"full_name" json:"full_name"`
	Department   string    `db:"department" json:"department"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures supported filters for roster snapshots.
type StudentFilter struct {
	Department   string
	AcademicYear int
}
