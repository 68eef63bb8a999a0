package allocator

// roundRobinPolicy flattens all groups into one sequence by drawing one
// student from each group in rotation, then lays that sequence into rooms
// filling seat 1..capacity before moving on. Works for flat-capacity rooms
// since no grid addressing is needed.
type roundRobinPolicy struct {
	cfg PolicyConfig
}

func (p *roundRobinPolicy) Name() string { return PatternRoundRobin }

func (p *roundRobinPolicy) Usable(v LayoutView) bool {
	return v.Capacity > 0
}

func (p *roundRobinPolicy) Place(g *Grouping, rooms []LayoutView) ([]Placement, PlanStats, error) {
	set := newCursorSet(g)

	var placements []Placement
	var stats PlanStats
	roomsUsed := make(map[string]bool)

	roomIdx := 0
	seat := 0
	for !set.exhausted() {
		cursor, ok := set.nextGroup()
		if !ok {
			break
		}
		student, more := cursor.take()
		if !more {
			continue
		}

		for roomIdx < len(rooms) && seat >= rooms[roomIdx].Capacity {
			roomIdx++
			seat = 0
		}
		if roomIdx >= len(rooms) {
			// Put the student back for an accurate leftover count.
			cursor.next--
			break
		}
		seat++
		placements = append(placements, placementFor(cursor, student, rooms[roomIdx].RoomNo, seat))
		roomsUsed[rooms[roomIdx].RoomNo] = true
	}

	stats.RoomsUsed = len(roomsUsed)
	if !set.exhausted() {
		return nil, stats, set.incomplete(len(placements), rooms, p.cfg)
	}
	return placements, stats, nil
}
