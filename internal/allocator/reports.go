package allocator

import "fmt"

// InvalidMappingError reports a department-subject mapping that cannot be
// allocated against: an unresolvable subject or two temporally overlapping
// subjects for one department.
type InvalidMappingError struct {
	Department string
	Reason     string
}

func (e *InvalidMappingError) Error() string {
	if e.Department == "" {
		return fmt.Sprintf("invalid mapping: %s", e.Reason)
	}
	return fmt.Sprintf("invalid mapping for department %s: %s", e.Department, e.Reason)
}

// CapacityPlan is the result of the pre-allocation sufficiency gate.
type CapacityPlan struct {
	Sufficient  bool `json:"sufficient"`
	TotalDemand int  `json:"total_demand"`
	TotalSeats  int  `json:"total_seats"`
	Shortage    int  `json:"shortage"`
	RoomsNeeded int  `json:"rooms_needed"`
}

// InsufficientCapacityError aborts a run before any mutation when total
// demand exceeds total seats.
type InsufficientCapacityError struct {
	Plan CapacityPlan
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d students, %d seats, short %d (about %d more rooms needed)",
		e.Plan.TotalDemand, e.Plan.TotalSeats, e.Plan.Shortage, e.Plan.RoomsNeeded)
}

// IncompleteError reports a planner that placed fewer students than demand
// despite a passing capacity check, typically because adjacency constraints
// prevented full packing. It carries the same shortage shape as the
// capacity gate so callers render one diagnostic for both.
type IncompleteError struct {
	Allocated         int      `json:"allocated"`
	Unallocated       int      `json:"unallocated"`
	SampleUnallocated []string `json:"sample_unallocated"`
	RoomsNeeded       int      `json:"rooms_needed"`
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("allocation incomplete: placed %d, %d unplaced (about %d more rooms needed)",
		e.Allocated, e.Unallocated, e.RoomsNeeded)
}

// PlanStats annotates a successful placement pass.
type PlanStats struct {
	// DegradedColumns counts columns the interleave policy had to fill
	// from a group matching a neighbouring column because no other group
	// had remaining demand. The run still succeeds when everyone is
	// placed; callers surface the count so operators can judge the plan.
	DegradedColumns int `json:"degraded_columns"`
	RoomsUsed       int `json:"rooms_used"`
}
