package models

import "time"

// SeatAssignment is the allocation output unit. Rows are created in bulk by
// one run and entirely superseded by the next run for the same scope.
// Uniqueness holds on (scope_key, room_no, seat_number) and on
// (scope_key, student_id, subject_id); subject-aware runs seat one student
// once per mapped subject.
type SeatAssignment struct {
	ID         string    `db:"id" json:"id"`
	ScopeKey   string    `db:"scope_key" json:"scope_key"`
	StudentID  string    `db:"student_id" json:"student_id"`
	RollNo     string    `db:"roll_no" json:"roll_no"`
	RoomNo     string    `db:"room_no" json:"room_no"`
	SeatNumber int       `db:"seat_number" json:"seat_number"`
	GroupKey   string    `db:"group_key" json:"group_key"`
	SubjectID  *string   `db:"subject_id" json:"subject_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
