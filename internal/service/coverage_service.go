package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Pushkar524/exam-seat-allotment/internal/dto"
	"github.com/Pushkar524/exam-seat-allotment/internal/models"
	appErrors "github.com/Pushkar524/exam-seat-allotment/pkg/errors"
)

type occupiedRoomsReader interface {
	DistinctRooms(ctx context.Context, scopeKey string) ([]string, error)
}

type invigilatorStore interface {
	ListUnassigned(ctx context.Context, scopeKey string) ([]models.Invigilator, error)
	UpsertAssignment(ctx context.Context, assignment *models.InvigilatorAssignment) error
	DeleteAssignment(ctx context.Context, scopeKey, roomNo string) error
	ListAssignments(ctx context.Context, scopeKey string) ([]models.InvigilatorAssignment, error)
}

type vacancyRecorder interface {
	SetVacantRooms(count int)
}

// CoverageService maps available invigilators 1:1 onto rooms that received
// students. It runs after a successful allocation, never blocks or
// reverses seat state, and is independently retriable.
type CoverageService struct {
	seats        occupiedRoomsReader
	invigilators invigilatorStore
	metrics      vacancyRecorder
	logger       *zap.Logger
}

// NewCoverageService wires the coverage assigner.
func NewCoverageService(seats occupiedRoomsReader, invigilators invigilatorStore, metrics vacancyRecorder, logger *zap.Logger) *CoverageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverageService{
		seats:        seats,
		invigilators: invigilators,
		metrics:      metrics,
		logger:       logger,
	}
}

// Assign pairs invigilators with occupied rooms in stable order until
// either side runs out. A room left uncovered is reported, not an error.
func (s *CoverageService) Assign(ctx context.Context, scopeKey string) (*dto.CoverageSummary, error) {
	if scopeKey == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope key is required")
	}

	rooms, err := s.seats.DistinctRooms(ctx, scopeKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occupied rooms")
	}
	pool, err := s.invigilators.ListUnassigned(ctx, scopeKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invigilator pool")
	}

	summary := &dto.CoverageSummary{}
	for i, roomNo := range rooms {
		if i >= len(pool) {
			summary.VacantRooms = append(summary.VacantRooms, rooms[i:]...)
			break
		}
		assignment := &models.InvigilatorAssignment{
			ScopeKey:      scopeKey,
			InvigilatorID: pool[i].ID,
			RoomNo:        roomNo,
		}
		if err := s.invigilators.UpsertAssignment(ctx, assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign invigilator")
		}
		summary.AssignedCount++
	}
	summary.VacantRoomCount = len(summary.VacantRooms)

	if s.metrics != nil {
		s.metrics.SetVacantRooms(summary.VacantRoomCount)
	}
	if summary.VacantRoomCount > 0 {
		s.logger.Info("coverage shortfall",
			zap.String("scope", scopeKey),
			zap.Int("assigned", summary.AssignedCount),
			zap.Int("vacant", summary.VacantRoomCount),
		)
	}
	return summary, nil
}

// Unassign clears one room's coverage for a scope so an administrator can
// reassign it, by hand or by re-running Assign.
func (s *CoverageService) Unassign(ctx context.Context, scopeKey, roomNo string) error {
	if scopeKey == "" || roomNo == "" {
		return appErrors.Clone(appErrors.ErrValidation, "scope key and room number are required")
	}
	if err := s.invigilators.DeleteAssignment(ctx, scopeKey, roomNo); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear coverage")
	}
	return nil
}

// List returns a scope's current coverage.
func (s *CoverageService) List(ctx context.Context, scopeKey string) ([]models.InvigilatorAssignment, error) {
	if scopeKey == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope key is required")
	}
	assignments, err := s.invigilators.ListAssignments(ctx, scopeKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coverage")
	}
	return assignments, nil
}
