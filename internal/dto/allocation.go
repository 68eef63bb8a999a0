package dto

// AllocationRequest carries the run parameters supplied by the caller.
type AllocationRequest struct {
	ScopeKey         string   `json:"scopeKey" validate:"required"`
	Pattern          string   `json:"pattern" validate:"required,oneof=column_interleaved round_robin bench_crisscross_2 bench_crisscross_3 bench_linear"`
	GroupingKey      string   `json:"groupingKey" validate:"required,oneof=department academic_year subject"`
	StudentsPerBench int      `json:"studentsPerBench" validate:"omitempty,min=1,max=8"`
	RoomNos          []string `json:"roomNos"`
	Department       string   `json:"department"`
	AcademicYear     int      `json:"academicYear" validate:"omitempty,min=1,max=6"`
	AssignCoverage   bool     `json:"assignCoverage"`
}

// CapacityReport summarises the sufficiency gate for the caller.
type CapacityReport struct {
	Sufficient  bool `json:"sufficient"`
	TotalDemand int  `json:"totalDemand"`
	TotalSeats  int  `json:"totalSeats"`
	Shortage    int  `json:"shortage"`
	RoomsNeeded int  `json:"roomsNeeded"`
}

// PlacementView is one planned seat in a preview.
type PlacementView struct {
	RollNo     string  `json:"rollNo"`
	FullName   string  `json:"fullName"`
	Department string  `json:"department"`
	GroupKey   string  `json:"groupKey"`
	RoomNo     string  `json:"roomNo"`
	SeatNumber int     `json:"seatNumber"`
	SubjectID  *string `json:"subjectId,omitempty"`
}

// PlanStatsView annotates a produced plan.
type PlanStatsView struct {
	DegradedColumns int `json:"degradedColumns"`
	RoomsUsed       int `json:"roomsUsed"`
}

// PreviewResponse is a dry-run plan; nothing has been persisted.
type PreviewResponse struct {
	ScopeKey        string          `json:"scopeKey"`
	Pattern         string          `json:"pattern"`
	Capacity        CapacityReport  `json:"capacity"`
	Placements      []PlacementView `json:"placements"`
	Stats           PlanStatsView   `json:"stats"`
	UnmappedRollNos []string        `json:"unmappedRollNos,omitempty"`
}

// RunResponse reports a committed allocation run.
type RunResponse struct {
	ScopeKey        string           `json:"scopeKey"`
	Pattern         string           `json:"pattern"`
	AssignedCount   int              `json:"assignedCount"`
	Stats           PlanStatsView    `json:"stats"`
	UnmappedRollNos []string         `json:"unmappedRollNos,omitempty"`
	Coverage        *CoverageSummary `json:"coverage,omitempty"`
}

// CoverageSummary reports the invigilator pass. A shortfall here is a
// normal condition, not an error.
type CoverageSummary struct {
	AssignedCount   int      `json:"assignedCount"`
	VacantRoomCount int      `json:"vacantRoomCount"`
	VacantRooms     []string `json:"vacantRooms,omitempty"`
}
