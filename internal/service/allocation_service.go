package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Pushkar524/exam-seat-allotment/internal/allocator"
	"github.com/Pushkar524/exam-seat-allotment/internal/dto"
	"github.com/Pushkar524/exam-seat-allotment/internal/models"
	"github.com/Pushkar524/exam-seat-allotment/internal/repository"
	appErrors "github.com/Pushkar524/exam-seat-allotment/pkg/errors"
	"github.com/Pushkar524/exam-seat-allotment/pkg/lock"
)

type rosterReader interface {
	ListForAllocation(ctx context.Context, exec sqlx.ExtContext, filter models.StudentFilter) ([]models.Student, error)
}

type roomReader interface {
	List(ctx context.Context, exec sqlx.ExtContext, roomNos []string) ([]models.Room, error)
}

type mappingReader interface {
	ListMappings(ctx context.Context, exec sqlx.ExtContext) ([]models.DepartmentSubjectMapping, error)
	ListSubjectsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]models.Subject, error)
}

type seatAssignmentStore interface {
	ReplaceScope(ctx context.Context, exec sqlx.ExtContext, scopeKey string, rows []models.SeatAssignment) error
	ListByScope(ctx context.Context, scopeKey string) ([]models.SeatAssignment, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scopeLocker interface {
	Acquire(ctx context.Context, scopeKey string) (*lock.Handle, bool, error)
	Release(ctx context.Context, h *lock.Handle) error
}

type runRecorder interface {
	ObserveRun(pattern, outcome string, duration time.Duration, placed int)
	SetShortage(shortage int)
}

type coverageAssigner interface {
	Assign(ctx context.Context, scopeKey string) (*dto.CoverageSummary, error)
}

// AllocationConfig tunes a service instance.
type AllocationConfig struct {
	DefaultRoomCapacity  int
	MaxSampleUnallocated int
}

// AllocationService runs the seat allocation pipeline: snapshot reads,
// grouping, the capacity gate, pattern placement, and the replace-scope
// commit. It exclusively owns seat assignment mutation.
type AllocationService struct {
	students  rosterReader
	rooms     roomReader
	mappings  mappingReader
	seats     seatAssignmentStore
	tx        txProvider
	locker    scopeLocker
	metrics   runRecorder
	coverage  coverageAssigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AllocationConfig
}

// NewAllocationService wires the allocation pipeline.
func NewAllocationService(
	students rosterReader,
	rooms roomReader,
	mappings mappingReader,
	seats seatAssignmentStore,
	tx txProvider,
	locker scopeLocker,
	metrics runRecorder,
	coverage coverageAssigner,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultRoomCapacity <= 0 {
		cfg.DefaultRoomCapacity = 30
	}
	return &AllocationService{
		students:  students,
		rooms:     rooms,
		mappings:  mappings,
		seats:     seats,
		tx:        tx,
		locker:    locker,
		metrics:   metrics,
		coverage:  coverage,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// builtPlan carries the intermediate products of one pipeline pass.
type builtPlan struct {
	grouping   *allocator.Grouping
	layouts    []allocator.LayoutView
	capacity   allocator.CapacityPlan
	placements []allocator.Placement
	stats      allocator.PlanStats
}

// Preview computes a plan without touching storage. The caller sees the
// exact placements a Run with the same inputs would commit.
func (s *AllocationService) Preview(ctx context.Context, req dto.AllocationRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	plan, err := s.buildPlan(ctx, nil, req)
	if err != nil {
		return nil, s.classify(err)
	}

	resp := &dto.PreviewResponse{
		ScopeKey:        req.ScopeKey,
		Pattern:         req.Pattern,
		Capacity:        capacityReport(plan.capacity),
		Placements:      make([]dto.PlacementView, 0, len(plan.placements)),
		Stats:           statsView(plan.stats),
		UnmappedRollNos: rollNos(plan.grouping.Unmapped),
	}
	for _, p := range plan.placements {
		resp.Placements = append(resp.Placements, dto.PlacementView{
			RollNo:     p.Student.RollNo,
			FullName:   p.Student.FullName,
			Department: p.Student.Department,
			GroupKey:   p.GroupKey,
			RoomNo:     p.RoomNo,
			SeatNumber: p.SeatNumber,
			SubjectID:  p.SubjectID,
		})
	}
	return resp, nil
}

// Run executes the full pipeline and commits the plan atomically. Any
// fatal failure rolls the transaction back, leaving the scope's prior
// assignments untouched.
func (s *AllocationService) Run(ctx context.Context, req dto.AllocationRequest) (*dto.RunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	if s.locker != nil {
		handle, ok, err := s.locker.Acquire(ctx, req.ScopeKey)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire scope lock")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrRunInProgress, "")
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), handle); err != nil {
				s.logger.Warn("scope lock release failed", zap.String("scope", req.ScopeKey), zap.Error(err))
			}
		}()
	}

	start := time.Now()
	outcome := "error"
	placed := 0
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveRun(req.Pattern, outcome, time.Since(start), placed)
		}
	}()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var plan *builtPlan
	plan, err = s.buildPlan(ctx, tx, req)
	if err != nil {
		err = s.classify(err)
		return nil, err
	}

	rows := make([]models.SeatAssignment, 0, len(plan.placements))
	for _, p := range plan.placements {
		rows = append(rows, models.SeatAssignment{
			ScopeKey:   req.ScopeKey,
			StudentID:  p.Student.ID,
			RollNo:     p.Student.RollNo,
			RoomNo:     p.RoomNo,
			SeatNumber: p.SeatNumber,
			GroupKey:   p.GroupKey,
			SubjectID:  p.SubjectID,
		})
	}

	if err = s.seats.ReplaceScope(ctx, tx, req.ScopeKey, rows); err != nil {
		if repository.IsUniqueViolation(err) {
			err = appErrors.Wrap(err, appErrors.ErrUniquenessViolation.Code, appErrors.ErrUniquenessViolation.Status, appErrors.ErrUniquenessViolation.Message)
		} else {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist seat assignments")
		}
		return nil, err
	}

	// A cancelled run must leave no side effects; once Commit starts it
	// runs to completion or rolls back whole.
	if err = ctx.Err(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocation cancelled before commit")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit allocation")
		return nil, err
	}

	outcome = "success"
	placed = len(rows)
	s.logger.Info("allocation committed",
		zap.String("scope", req.ScopeKey),
		zap.String("pattern", req.Pattern),
		zap.Int("assigned", placed),
		zap.Int("rooms_used", plan.stats.RoomsUsed),
	)

	resp := &dto.RunResponse{
		ScopeKey:        req.ScopeKey,
		Pattern:         req.Pattern,
		AssignedCount:   placed,
		Stats:           statsView(plan.stats),
		UnmappedRollNos: rollNos(plan.grouping.Unmapped),
	}

	// Coverage never blocks or reverses the committed seats; a failure
	// here is logged and the summary omitted, the caller may retry it.
	if req.AssignCoverage && s.coverage != nil {
		summary, coverErr := s.coverage.Assign(ctx, req.ScopeKey)
		if coverErr != nil {
			s.logger.Warn("coverage assignment failed", zap.String("scope", req.ScopeKey), zap.Error(coverErr))
		} else {
			resp.Coverage = summary
		}
	}

	return resp, nil
}

// ListAssignments returns the committed plan for a scope.
func (s *AllocationService) ListAssignments(ctx context.Context, scopeKey string) ([]models.SeatAssignment, error) {
	if scopeKey == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope key is required")
	}
	rows, err := s.seats.ListByScope(ctx, scopeKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seat assignments")
	}
	return rows, nil
}

func (s *AllocationService) buildPlan(ctx context.Context, exec sqlx.ExtContext, req dto.AllocationRequest) (*builtPlan, error) {
	roster, err := s.students.ListForAllocation(ctx, exec, models.StudentFilter{
		Department:   req.Department,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no students to allocate")
	}

	rooms, err := s.rooms.List(ctx, exec, req.RoomNos)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no rooms available for allocation")
	}

	in := allocator.ResolveInput{Roster: roster, Key: allocator.GroupingKey(req.GroupingKey)}
	if in.Key == allocator.GroupBySubject {
		mappings, err := s.mappings.ListMappings(ctx, exec)
		if err != nil {
			return nil, err
		}
		subjectIDs := make([]string, 0, len(mappings))
		seen := make(map[string]bool, len(mappings))
		for _, m := range mappings {
			if !seen[m.SubjectID] {
				seen[m.SubjectID] = true
				subjectIDs = append(subjectIDs, m.SubjectID)
			}
		}
		subjects, err := s.mappings.ListSubjectsByIDs(ctx, exec, subjectIDs)
		if err != nil {
			return nil, err
		}
		in.Mappings = mappings
		in.Subjects = subjects
	}

	grouping, err := allocator.Resolve(in)
	if err != nil {
		return nil, err
	}

	policy, err := allocator.PolicyFor(req.Pattern, allocator.PolicyConfig{
		MaxSampleUnallocated: s.cfg.MaxSampleUnallocated,
		FallbackRoomCapacity: s.cfg.DefaultRoomCapacity,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown seating pattern")
	}

	layouts := make([]allocator.LayoutView, 0, len(rooms))
	for _, room := range rooms {
		view := allocator.ApplyBenchWidth(allocator.Normalize(room), req.StudentsPerBench)
		if policy.Usable(view) {
			layouts = append(layouts, view)
		}
	}
	if len(layouts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no room layout suits the requested pattern")
	}

	// The sufficiency gate runs before any mutation; a shortage aborts
	// the run with nothing committed.
	capacity := allocator.PlanCapacity(grouping.TotalDemand(), layouts, s.cfg.DefaultRoomCapacity)
	if s.metrics != nil {
		s.metrics.SetShortage(capacity.Shortage)
	}
	if !capacity.Sufficient {
		return nil, &allocator.InsufficientCapacityError{Plan: capacity}
	}

	placements, stats, err := policy.Place(grouping, layouts)
	if err != nil {
		var incomplete *allocator.IncompleteError
		if errors.As(err, &incomplete) {
			return nil, err
		}
		// Structural mismatches (e.g. group count vs pattern) are caller
		// errors, not engine defects.
		return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, err.Error())
	}

	if err := allocator.ValidatePlan(placements, layouts); err != nil {
		return nil, err
	}

	return &builtPlan{
		grouping:   grouping,
		layouts:    layouts,
		capacity:   capacity,
		placements: placements,
		stats:      stats,
	}, nil
}

// classify maps engine failures onto the typed error taxonomy so callers
// receive structured, actionable diagnostics.
func (s *AllocationService) classify(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	var mapping *allocator.InvalidMappingError
	if errors.As(err, &mapping) {
		return appErrors.Wrap(err, appErrors.ErrInvalidMapping.Code, appErrors.ErrInvalidMapping.Status, mapping.Error())
	}

	var capacity *allocator.InsufficientCapacityError
	if errors.As(err, &capacity) {
		return appErrors.Wrap(err, appErrors.ErrInsufficientCapacity.Code, appErrors.ErrInsufficientCapacity.Status, capacity.Error())
	}

	var incomplete *allocator.IncompleteError
	if errors.As(err, &incomplete) {
		return appErrors.Wrap(err, appErrors.ErrAllocationIncomplete.Code, appErrors.ErrAllocationIncomplete.Status, incomplete.Error())
	}

	var violation *allocator.PlanViolationError
	if errors.As(err, &violation) {
		return appErrors.Wrap(err, appErrors.ErrUniquenessViolation.Code, appErrors.ErrUniquenessViolation.Status, violation.Error())
	}

	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocation failed")
}

func capacityReport(plan allocator.CapacityPlan) dto.CapacityReport {
	return dto.CapacityReport{
		Sufficient:  plan.Sufficient,
		TotalDemand: plan.TotalDemand,
		TotalSeats:  plan.TotalSeats,
		Shortage:    plan.Shortage,
		RoomsNeeded: plan.RoomsNeeded,
	}
}

func statsView(stats allocator.PlanStats) dto.PlanStatsView {
	return dto.PlanStatsView{
		DegradedColumns: stats.DegradedColumns,
		RoomsUsed:       stats.RoomsUsed,
	}
}

func rollNos(students []models.Student) []string {
	if len(students) == 0 {
		return nil
	}
	rolls := make([]string, 0, len(students))
	for _, student := range students {
		rolls = append(rolls, student.RollNo)
	}
	return rolls
}
