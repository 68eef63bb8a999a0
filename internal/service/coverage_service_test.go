package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
	appErrors "github.com/Pushkar524/exam-seat-allotment/pkg/errors"
)

type stubOccupiedRooms struct {
	rooms []string
	err   error
}

func (s *stubOccupiedRooms) DistinctRooms(ctx context.Context, scopeKey string) ([]string, error) {
	return s.rooms, s.err
}

type stubInvigilators struct {
	pool        []models.Invigilator
	upserted    []models.InvigilatorAssignment
	upsertErr   error
	deleted     []string
	assignments []models.InvigilatorAssignment
}

func (s *stubInvigilators) ListUnassigned(ctx context.Context, scopeKey string) ([]models.Invigilator, error) {
	return s.pool, nil
}

func (s *stubInvigilators) UpsertAssignment(ctx context.Context, assignment *models.InvigilatorAssignment) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, *assignment)
	return nil
}

func (s *stubInvigilators) DeleteAssignment(ctx context.Context, scopeKey, roomNo string) error {
	s.deleted = append(s.deleted, roomNo)
	return nil
}

func (s *stubInvigilators) ListAssignments(ctx context.Context, scopeKey string) ([]models.InvigilatorAssignment, error) {
	return s.assignments, nil
}

type stubVacancy struct {
	vacant int
}

func (s *stubVacancy) SetVacantRooms(count int) { s.vacant = count }

func TestCoverageServiceAssignPairsRoomsAndPool(t *testing.T) {
	invigilators := &stubInvigilators{pool: []models.Invigilator{
		{ID: "inv-1", FullName: "First"},
		{ID: "inv-2", FullName: "Second"},
	}}
	vacancy := &stubVacancy{}
	svc := NewCoverageService(&stubOccupiedRooms{rooms: []string{"R1", "R2"}}, invigilators, vacancy, nil)

	summary, err := svc.Assign(context.Background(), "scope")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AssignedCount)
	assert.Zero(t, summary.VacantRoomCount)
	require.Len(t, invigilators.upserted, 2)
	assert.Equal(t, "inv-1", invigilators.upserted[0].InvigilatorID)
	assert.Equal(t, "R1", invigilators.upserted[0].RoomNo)
	assert.Equal(t, "inv-2", invigilators.upserted[1].InvigilatorID)
	assert.Equal(t, "R2", invigilators.upserted[1].RoomNo)
	assert.Zero(t, vacancy.vacant)
}

func TestCoverageServiceAssignReportsShortfall(t *testing.T) {
	invigilators := &stubInvigilators{pool: []models.Invigilator{{ID: "inv-1"}}}
	vacancy := &stubVacancy{}
	svc := NewCoverageService(&stubOccupiedRooms{rooms: []string{"R1", "R2", "R3"}}, invigilators, vacancy, nil)

	summary, err := svc.Assign(context.Background(), "scope")
	require.NoError(t, err, "a shortfall is reported, never an error")
	assert.Equal(t, 1, summary.AssignedCount)
	assert.Equal(t, 2, summary.VacantRoomCount)
	assert.Equal(t, []string{"R2", "R3"}, summary.VacantRooms)
	assert.Equal(t, 2, vacancy.vacant)
}

func TestCoverageServiceAssignEmptyScope(t *testing.T) {
	svc := NewCoverageService(&stubOccupiedRooms{}, &stubInvigilators{pool: []models.Invigilator{{ID: "inv-1"}}}, nil, nil)

	summary, err := svc.Assign(context.Background(), "scope")
	require.NoError(t, err)
	assert.Zero(t, summary.AssignedCount)
	assert.Zero(t, summary.VacantRoomCount)
}

func TestCoverageServiceAssignRequiresScopeKey(t *testing.T) {
	svc := NewCoverageService(&stubOccupiedRooms{}, &stubInvigilators{}, nil, nil)

	_, err := svc.Assign(context.Background(), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(t, err))
}

func TestCoverageServiceAssignUpsertFailure(t *testing.T) {
	invigilators := &stubInvigilators{
		pool:      []models.Invigilator{{ID: "inv-1"}},
		upsertErr: errors.New("write failed"),
	}
	svc := NewCoverageService(&stubOccupiedRooms{rooms: []string{"R1"}}, invigilators, nil, nil)

	_, err := svc.Assign(context.Background(), "scope")
	assert.Equal(t, appErrors.ErrInternal.Code, appCode(t, err))
}

func TestCoverageServiceUnassign(t *testing.T) {
	invigilators := &stubInvigilators{}
	svc := NewCoverageService(&stubOccupiedRooms{}, invigilators, nil, nil)

	require.NoError(t, svc.Unassign(context.Background(), "scope", "R1"))
	assert.Equal(t, []string{"R1"}, invigilators.deleted)

	err := svc.Unassign(context.Background(), "scope", "")
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(t, err))
}

func TestCoverageServiceList(t *testing.T) {
	invigilators := &stubInvigilators{assignments: []models.InvigilatorAssignment{
		{InvigilatorID: "inv-1", RoomNo: "R1"},
	}}
	svc := NewCoverageService(&stubOccupiedRooms{}, invigilators, nil, nil)

	assignments, err := svc.List(context.Background(), "scope")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)

	_, err = svc.List(context.Background(), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(t, err))
}
