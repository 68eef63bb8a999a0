package allocator

import "github.com/Pushkar524/exam-seat-allotment/internal/models"

// LayoutView normalizes a room's seat space into an addressable grid or a
// flat capacity count. Addressable is false when either grid dimension is
// zero; such rooms only serve policies that fill by flat seat order.
type LayoutView struct {
	RoomNo        string
	Capacity      int
	Benches       int
	SeatsPerBench int
	Addressable   bool
}

// Normalize derives the layout view for a room.
func Normalize(room models.Room) LayoutView {
	return LayoutView{
		RoomNo:        room.RoomNo,
		Capacity:      room.Capacity,
		Benches:       room.Benches,
		SeatsPerBench: room.SeatsPerBench,
		Addressable:   room.Benches > 0 && room.SeatsPerBench > 0,
	}
}

// ApplyBenchWidth narrows the usable seats per bench, e.g. when a run seats
// two students on four-seat benches. Effective capacity shrinks accordingly.
func ApplyBenchWidth(v LayoutView, width int) LayoutView {
	if width <= 0 || !v.Addressable || width >= v.SeatsPerBench {
		return v
	}
	v.SeatsPerBench = width
	if grid := v.Benches * v.SeatsPerBench; grid < v.Capacity {
		v.Capacity = grid
	}
	return v
}

// SeatRowMajor numbers seats bench by bench: bench b, column c gives
// b*seatsPerBench + c + 1.
func (v LayoutView) SeatRowMajor(bench, col int) int {
	return bench*v.SeatsPerBench + col + 1
}

// SeatColumnMajor numbers seats column by column: column c, bench b gives
// c*benches + b + 1. Column-adjacent seats stay numerically contiguous.
func (v LayoutView) SeatColumnMajor(bench, col int) int {
	return col*v.Benches + bench + 1
}

// InBounds reports whether a seat number is valid for this room. Grid
// positions past the capacity do not physically exist and must not be
// emitted.
func (v LayoutView) InBounds(seat int) bool {
	return seat >= 1 && seat <= v.Capacity
}
