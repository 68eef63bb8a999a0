package allocator

import (
	"fmt"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// Pattern names accepted by PolicyFor.
const (
	PatternColumnInterleaved = "column_interleaved"
	PatternRoundRobin        = "round_robin"
	PatternBenchCrissCross2  = "bench_crisscross_2"
	PatternBenchCrissCross3  = "bench_crisscross_3"
	PatternBenchLinear       = "bench_linear"
)

// Placement maps one student onto one physical seat.
type Placement struct {
	Student    models.Student
	RoomNo     string
	SeatNumber int
	GroupKey   string
	SubjectID  *string
}

// SeatingPolicy turns ordered groups and room layouts into placements.
// Place never exceeds a room's capacity and never reuses a (room, seat)
// pair; when it cannot place every student it returns *IncompleteError.
type SeatingPolicy interface {
	Name() string
	// Usable reports whether a room's layout satisfies the policy's
	// structural needs; unusable rooms are excluded before the capacity
	// gate so the gate reflects seats the policy can actually fill.
	Usable(v LayoutView) bool
	Place(g *Grouping, rooms []LayoutView) ([]Placement, PlanStats, error)
}

// PolicyConfig tunes policy behaviour common to all patterns.
type PolicyConfig struct {
	// MaxSampleUnallocated bounds the roll-number sample carried by an
	// incomplete-allocation report.
	MaxSampleUnallocated int
	// FallbackRoomCapacity is the representative capacity used for
	// rooms-needed estimates when no room is available to consult.
	FallbackRoomCapacity int
}

func (c PolicyConfig) sampleMax() int {
	if c.MaxSampleUnallocated <= 0 {
		return 10
	}
	return c.MaxSampleUnallocated
}

// PolicyFor resolves a pattern name to its policy.
func PolicyFor(pattern string, cfg PolicyConfig) (SeatingPolicy, error) {
	switch pattern {
	case PatternColumnInterleaved:
		return &columnInterleavedPolicy{cfg: cfg}, nil
	case PatternRoundRobin:
		return &roundRobinPolicy{cfg: cfg}, nil
	case PatternBenchCrissCross2:
		return &benchCrissCrossPolicy{cfg: cfg, groupCount: 2}, nil
	case PatternBenchCrissCross3:
		return &benchCrissCrossPolicy{cfg: cfg, groupCount: 3}, nil
	case PatternBenchLinear:
		return &benchLinearPolicy{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown seating pattern %q", pattern)
	}
}

// Patterns lists all registered pattern names.
func Patterns() []string {
	return []string{
		PatternColumnInterleaved,
		PatternRoundRobin,
		PatternBenchCrissCross2,
		PatternBenchCrissCross3,
		PatternBenchLinear,
	}
}

// --- Group cursors ---

// groupCursor walks one group's ordered students. The index is the only
// state; no shared counters are mutated across loops.
type groupCursor struct {
	key       string
	subjectID *string
	students  []models.Student
	next      int
}

func (c *groupCursor) remaining() int {
	return len(c.students) - c.next
}

func (c *groupCursor) take() (models.Student, bool) {
	if c.next >= len(c.students) {
		return models.Student{}, false
	}
	student := c.students[c.next]
	c.next++
	return student, true
}

// cursorSet holds one cursor per group plus the round-robin rotation
// pointer. Selection is a pure scan; the pointer advances only when a
// cursor is actually chosen.
type cursorSet struct {
	cursors  []*groupCursor
	rotation int
}

func newCursorSet(g *Grouping) *cursorSet {
	cursors := make([]*groupCursor, 0, len(g.Groups))
	for _, group := range g.Groups {
		cursors = append(cursors, &groupCursor{
			key:       group.Key,
			subjectID: group.SubjectID,
			students:  group.Students,
		})
	}
	return &cursorSet{cursors: cursors}
}

func (s *cursorSet) totalRemaining() int {
	total := 0
	for _, cursor := range s.cursors {
		total += cursor.remaining()
	}
	return total
}

func (s *cursorSet) exhausted() bool {
	return s.totalRemaining() == 0
}

// nextGroup returns the next cursor in rotation with remaining demand whose
// key is not among the avoided neighbours. ok is false when no cursor can
// satisfy the avoidance set.
func (s *cursorSet) nextGroup(avoid ...string) (*groupCursor, bool) {
	n := len(s.cursors)
	for offset := 0; offset < n; offset++ {
		idx := (s.rotation + offset) % n
		cursor := s.cursors[idx]
		if cursor.remaining() == 0 || contains(avoid, cursor.key) {
			continue
		}
		s.rotation = (idx + 1) % n
		return cursor, true
	}
	return nil, false
}

// largestRemaining supports graceful degradation: when no group satisfies
// the avoidance set, the column is filled from whichever group has the most
// demand left.
func (s *cursorSet) largestRemaining() *groupCursor {
	var best *groupCursor
	for _, cursor := range s.cursors {
		if cursor.remaining() == 0 {
			continue
		}
		if best == nil || cursor.remaining() > best.remaining() {
			best = cursor
		}
	}
	return best
}

// sampleRemaining returns up to max roll numbers of unplaced students.
func (s *cursorSet) sampleRemaining(max int) []string {
	var sample []string
	for _, cursor := range s.cursors {
		for i := cursor.next; i < len(cursor.students); i++ {
			if len(sample) >= max {
				return sample
			}
			sample = append(sample, cursor.students[i].RollNo)
		}
	}
	return sample
}

func (s *cursorSet) incomplete(placed int, rooms []LayoutView, cfg PolicyConfig) *IncompleteError {
	unallocated := s.totalRemaining()
	return &IncompleteError{
		Allocated:         placed,
		Unallocated:       unallocated,
		SampleUnallocated: s.sampleRemaining(cfg.sampleMax()),
		RoomsNeeded:       roomsNeeded(unallocated, rooms, cfg.FallbackRoomCapacity),
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func placementFor(cursor *groupCursor, student models.Student, roomNo string, seat int) Placement {
	return Placement{
		Student:    student,
		RoomNo:     roomNo,
		SeatNumber: seat,
		GroupKey:   cursor.key,
		SubjectID:  cursor.subjectID,
	}
}

// --- Plan validation ---

// PlanViolationError flags a planner defect: a duplicated seat, a
// duplicated student, or a placement outside a room's capacity. It must
// never reach a committed state.
type PlanViolationError struct {
	Detail string
}

func (e *PlanViolationError) Error() string {
	return "plan violation: " + e.Detail
}

// ValidatePlan enforces the committed-plan properties: no two placements
// share (room, seat), no two share (student, subject), and no room exceeds
// its capacity.
func ValidatePlan(placements []Placement, rooms []LayoutView) error {
	layouts := make(map[string]LayoutView, len(rooms))
	for _, room := range rooms {
		layouts[room.RoomNo] = room
	}

	seats := make(map[string]bool, len(placements))
	students := make(map[string]bool, len(placements))
	perRoom := make(map[string]int)

	for _, p := range placements {
		seatKey := fmt.Sprintf("%s#%d", p.RoomNo, p.SeatNumber)
		if seats[seatKey] {
			return &PlanViolationError{Detail: fmt.Sprintf("seat %d in room %s assigned twice", p.SeatNumber, p.RoomNo)}
		}
		seats[seatKey] = true

		studentKey := p.Student.ID
		if p.SubjectID != nil {
			studentKey += "#" + *p.SubjectID
		}
		if students[studentKey] {
			return &PlanViolationError{Detail: fmt.Sprintf("student %s assigned twice", p.Student.RollNo)}
		}
		students[studentKey] = true

		layout, ok := layouts[p.RoomNo]
		if !ok {
			return &PlanViolationError{Detail: fmt.Sprintf("placement references unknown room %s", p.RoomNo)}
		}
		if !layout.InBounds(p.SeatNumber) {
			return &PlanViolationError{Detail: fmt.Sprintf("seat %d out of bounds for room %s", p.SeatNumber, p.RoomNo)}
		}
		perRoom[p.RoomNo]++
		if perRoom[p.RoomNo] > layout.Capacity {
			return &PlanViolationError{Detail: fmt.Sprintf("room %s exceeds capacity %d", p.RoomNo, layout.Capacity)}
		}
	}
	return nil
}
