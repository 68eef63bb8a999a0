package allocator

// columnInterleavedPolicy fills each room column by column, rotating
// between groups so that neighbouring columns never share a group key
// while any other group still has demand. Seats within a column are
// numbered column-major so column neighbours sit on adjacent benches.
type columnInterleavedPolicy struct {
	cfg PolicyConfig
}

func (p *columnInterleavedPolicy) Name() string { return PatternColumnInterleaved }

func (p *columnInterleavedPolicy) Usable(v LayoutView) bool {
	return v.Addressable
}

func (p *columnInterleavedPolicy) Place(g *Grouping, rooms []LayoutView) ([]Placement, PlanStats, error) {
	set := newCursorSet(g)
	var placements []Placement
	var stats PlanStats
	roomsUsed := make(map[string]bool)

	for _, room := range rooms {
		if set.exhausted() {
			break
		}
		prevKey := ""
		for col := 0; col < room.SeatsPerBench; col++ {
			if set.exhausted() {
				break
			}
			cursor, ok := set.nextGroup(prevKey)
			if !ok {
				// Every group with demand left matches the previous
				// column. Fill from the largest remainder rather than
				// deadlock, and record the degraded column.
				cursor = set.largestRemaining()
				if cursor == nil {
					break
				}
				if cursor.key == prevKey {
					stats.DegradedColumns++
				}
			}

			placed := false
			for bench := 0; bench < room.Benches; bench++ {
				seat := room.SeatColumnMajor(bench, col)
				if !room.InBounds(seat) {
					continue
				}
				student, more := cursor.take()
				if !more {
					break
				}
				placements = append(placements, placementFor(cursor, student, room.RoomNo, seat))
				roomsUsed[room.RoomNo] = true
				placed = true
			}
			if placed {
				prevKey = cursor.key
			}
		}
	}

	stats.RoomsUsed = len(roomsUsed)
	if !set.exhausted() {
		// The capacity gate already passed, so leftovers mean the
		// adjacency constraints prevented full packing.
		return nil, stats, set.incomplete(len(placements), rooms, p.cfg)
	}
	return placements, stats, nil
}
