package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// RoomRepository reads the examination room inventory.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns rooms ordered by room number. When roomNos is non-empty the
// inventory is restricted to that scope; order stays by room number either
// way so the capacity planner's representative room is predictable.
func (r *RoomRepository) List(ctx context.Context, exec sqlx.ExtContext, roomNos []string) ([]models.Room, error) {
	query := "SELECT id, room_no, capacity, benches, seats_per_bench, created_at, updated_at FROM rooms"
	args := []interface{}{}
	if len(roomNos) > 0 {
		query += " WHERE room_no = ANY($1)"
		args = append(args, pq.Array(roomNos))
	}
	query += " ORDER BY room_no ASC"

	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
