package models

import "time"

// Invigilator represents a staff member eligible for room coverage.
type Invigilator struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InvigilatorAssignment maps an invigilator onto one room for a scope.
// At most one invigilator per (scope_key, room_no). Administrators may edit
// these directly between allocation runs.
type InvigilatorAssignment struct {
	ID            string    `db:"id" json:"id"`
	ScopeKey      string    `db:"scope_key" json:"scope_key"`
	InvigilatorID string    `db:"invigilator_id" json:"invigilator_id"`
	RoomNo        string    `db:"room_no" json:"room_no"`
	AssignedAt    time.Time `db:"assigned_at" json:"assigned_at"`
}
