package allocator

// PlanCapacity checks whether the rooms can seat the demand. The
// rooms-needed estimate divides the shortage by a representative capacity:
// the first room's, or fallbackCapacity when no rooms were supplied.
func PlanCapacity(demand int, rooms []LayoutView, fallbackCapacity int) CapacityPlan {
	totalSeats := 0
	for _, room := range rooms {
		totalSeats += room.Capacity
	}

	plan := CapacityPlan{
		TotalDemand: demand,
		TotalSeats:  totalSeats,
	}

	if demand <= totalSeats {
		plan.Sufficient = true
		return plan
	}

	plan.Shortage = demand - totalSeats
	plan.RoomsNeeded = roomsNeeded(plan.Shortage, rooms, fallbackCapacity)
	return plan
}

func roomsNeeded(shortage int, rooms []LayoutView, fallbackCapacity int) int {
	representative := fallbackCapacity
	if len(rooms) > 0 && rooms[0].Capacity > 0 {
		representative = rooms[0].Capacity
	}
	if representative <= 0 {
		representative = 1
	}
	return (shortage + representative - 1) / representative
}
