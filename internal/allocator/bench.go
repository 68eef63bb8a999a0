package allocator

import "fmt"

// benchCrissCrossPolicy seats a fixed number of groups across each bench.
// With two groups the per-bench order alternates ([A,B] then [B,A]) so
// across-the-aisle neighbours differ; with three groups the rotation
// [A,B,C] repeats unchanged since three distinct bench neighbours already
// rule out same-group adjacency.
type benchCrissCrossPolicy struct {
	cfg        PolicyConfig
	groupCount int
}

func (p *benchCrissCrossPolicy) Name() string {
	if p.groupCount == 3 {
		return PatternBenchCrissCross3
	}
	return PatternBenchCrissCross2
}

func (p *benchCrissCrossPolicy) Usable(v LayoutView) bool {
	return v.Addressable && v.SeatsPerBench == p.groupCount
}

func (p *benchCrissCrossPolicy) Place(g *Grouping, rooms []LayoutView) ([]Placement, PlanStats, error) {
	if len(g.Groups) != p.groupCount {
		return nil, PlanStats{}, fmt.Errorf("pattern %s requires exactly %d groups, got %d", p.Name(), p.groupCount, len(g.Groups))
	}

	set := newCursorSet(g)
	var placements []Placement
	var stats PlanStats
	roomsUsed := make(map[string]bool)

	for _, room := range rooms {
		if set.exhausted() {
			break
		}
		for bench := 0; bench < room.Benches; bench++ {
			if set.exhausted() {
				break
			}
			order := p.benchOrder(bench)
			for col, groupIdx := range order {
				seat := room.SeatRowMajor(bench, col)
				if !room.InBounds(seat) {
					continue
				}
				cursor := set.cursors[groupIdx]
				student, more := cursor.take()
				if !more {
					// Leave the seat empty rather than break the
					// alternation guarantee.
					continue
				}
				placements = append(placements, placementFor(cursor, student, room.RoomNo, seat))
				roomsUsed[room.RoomNo] = true
			}
		}
	}

	stats.RoomsUsed = len(roomsUsed)
	if !set.exhausted() {
		return nil, stats, set.incomplete(len(placements), rooms, p.cfg)
	}
	return placements, stats, nil
}

// benchOrder yields the group index per seat column for a bench.
func (p *benchCrissCrossPolicy) benchOrder(bench int) []int {
	if p.groupCount == 2 && bench%2 == 1 {
		return []int{1, 0}
	}
	order := make([]int, p.groupCount)
	for i := range order {
		order[i] = i
	}
	return order
}

// benchLinearPolicy fills benches sequentially, completing one group's full
// demand before starting the next. Used when adjacency avoidance is not
// required.
type benchLinearPolicy struct {
	cfg PolicyConfig
}

func (p *benchLinearPolicy) Name() string { return PatternBenchLinear }

func (p *benchLinearPolicy) Usable(v LayoutView) bool {
	return v.Capacity > 0
}

func (p *benchLinearPolicy) Place(g *Grouping, rooms []LayoutView) ([]Placement, PlanStats, error) {
	set := newCursorSet(g)
	var placements []Placement
	var stats PlanStats
	roomsUsed := make(map[string]bool)

	roomIdx := 0
	seat := 0
	for _, cursor := range set.cursors {
		for cursor.remaining() > 0 {
			for roomIdx < len(rooms) && seat >= rooms[roomIdx].Capacity {
				roomIdx++
				seat = 0
			}
			if roomIdx >= len(rooms) {
				break
			}
			student, more := cursor.take()
			if !more {
				break
			}
			seat++
			placements = append(placements, placementFor(cursor, student, rooms[roomIdx].RoomNo, seat))
			roomsUsed[rooms[roomIdx].RoomNo] = true
		}
	}

	stats.RoomsUsed = len(roomsUsed)
	if !set.exhausted() {
		return nil, stats, set.incomplete(len(placements), rooms, p.cfg)
	}
	return placements, stats, nil
}
