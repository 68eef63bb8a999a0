package models

import "time"

// Room represents an examination room. Benches and SeatsPerBench describe
// the addressable grid; either being zero means the room only offers a flat
// capacity count.
type Room struct {
	ID            string    `db:"id" json:"id"`
	RoomNo        string    `db:"room_no" json:"room_no"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Benches       int       `db:"benches" json:"benches"`
	SeatsPerBench int       `db:"seats_per_bench" json:"seats_per_bench"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
