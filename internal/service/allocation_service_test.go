package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pushkar524/exam-seat-allotment/internal/dto"
	"github.com/Pushkar524/exam-seat-allotment/internal/models"
	appErrors "github.com/Pushkar524/exam-seat-allotment/pkg/errors"
	"github.com/Pushkar524/exam-seat-allotment/pkg/lock"
)

type stubRoster struct {
	students []models.Student
	err      error
}

func (s *stubRoster) ListForAllocation(ctx context.Context, exec sqlx.ExtContext, filter models.StudentFilter) ([]models.Student, error) {
	return s.students, s.err
}

type stubRooms struct {
	rooms []models.Room
	err   error
}

func (s *stubRooms) List(ctx context.Context, exec sqlx.ExtContext, roomNos []string) ([]models.Room, error) {
	return s.rooms, s.err
}

type stubMappings struct {
	mappings []models.DepartmentSubjectMapping
	subjects []models.Subject
}

func (s *stubMappings) ListMappings(ctx context.Context, exec sqlx.ExtContext) ([]models.DepartmentSubjectMapping, error) {
	return s.mappings, nil
}

func (s *stubMappings) ListSubjectsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]models.Subject, error) {
	return s.subjects, nil
}

type stubSeats struct {
	replaced   []models.SeatAssignment
	replaceErr error
	listed     []models.SeatAssignment
}

func (s *stubSeats) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, scopeKey string, rows []models.SeatAssignment) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = rows
	return nil
}

func (s *stubSeats) ListByScope(ctx context.Context, scopeKey string) ([]models.SeatAssignment, error) {
	return s.listed, nil
}

type stubLocker struct {
	denied   bool
	acquired int
	released int
}

func (s *stubLocker) Acquire(ctx context.Context, scopeKey string) (*lock.Handle, bool, error) {
	if s.denied {
		return nil, false, nil
	}
	s.acquired++
	return &lock.Handle{}, true, nil
}

func (s *stubLocker) Release(ctx context.Context, h *lock.Handle) error {
	s.released++
	return nil
}

type stubMetrics struct {
	outcome  string
	placed   int
	shortage int
}

func (s *stubMetrics) ObserveRun(pattern, outcome string, duration time.Duration, placed int) {
	s.outcome = outcome
	s.placed = placed
}

func (s *stubMetrics) SetShortage(shortage int) { s.shortage = shortage }

type stubCoverage struct {
	summary *dto.CoverageSummary
	err     error
	calls   int
}

func (s *stubCoverage) Assign(ctx context.Context, scopeKey string) (*dto.CoverageSummary, error) {
	s.calls++
	return s.summary, s.err
}

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func rosterOf(entries ...[2]string) []models.Student {
	students := make([]models.Student, 0, len(entries))
	for _, e := range entries {
		students = append(students, models.Student{
			ID:           "id-" + e[0],
			RollNo:       e[0],
			FullName:     "Student " + e[0],
			Department:   e[1],
			AcademicYear: 2,
		})
	}
	return students
}

func gridRooms() []models.Room {
	return []models.Room{
		{ID: "room-1", RoomNo: "R1", Capacity: 6, Benches: 3, SeatsPerBench: 2},
	}
}

func validRequest() dto.AllocationRequest {
	return dto.AllocationRequest{
		ScopeKey:    "2026-03-10:morning",
		Pattern:     "column_interleaved",
		GroupingKey: "department",
	}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestAllocationServiceRunCommitsPlan(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	seats := &stubSeats{}
	locker := &stubLocker{}
	metrics := &stubMetrics{}
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"102", "CS"}, [2]string{"201", "ME"}, [2]string{"202", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		seats,
		db,
		locker,
		metrics,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	resp, err := svc.Run(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 4, resp.AssignedCount)
	assert.Equal(t, 1, resp.Stats.RoomsUsed)
	assert.Len(t, seats.replaced, 4)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, "success", metrics.outcome)
	assert.Equal(t, 4, metrics.placed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceRunRejectsInvalidPayload(t *testing.T) {
	svc := NewAllocationService(&stubRoster{}, &stubRooms{}, &stubMappings{}, &stubSeats{}, nil, nil, nil, nil, nil, nil, AllocationConfig{})

	_, err := svc.Run(context.Background(), dto.AllocationRequest{ScopeKey: "scope", Pattern: "diagonal", GroupingKey: "department"})
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(t, err))
}

func TestAllocationServiceRunInsufficientCapacityRollsBack(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	metrics := &stubMetrics{}
	svc := NewAllocationService(
		&stubRoster{students: rosterOf(
			[2]string{"101", "CS"}, [2]string{"102", "CS"}, [2]string{"103", "CS"}, [2]string{"104", "CS"}, [2]string{"105", "CS"},
			[2]string{"201", "ME"}, [2]string{"202", "ME"}, [2]string{"203", "ME"}, [2]string{"204", "ME"}, [2]string{"205", "ME"},
		)},
		&stubRooms{rooms: []models.Room{{RoomNo: "R1", Capacity: 4, Benches: 2, SeatsPerBench: 2}}},
		&stubMappings{},
		&stubSeats{},
		db,
		nil,
		metrics,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	_, err := svc.Run(context.Background(), validRequest())
	assert.Equal(t, appErrors.ErrInsufficientCapacity.Code, appCode(t, err))
	assert.Equal(t, 6, metrics.shortage)
	assert.Equal(t, "error", metrics.outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceRunDeniedWhenScopeLocked(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		&stubSeats{},
		db,
		&stubLocker{denied: true},
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	_, err := svc.Run(context.Background(), validRequest())
	assert.Equal(t, appErrors.ErrRunInProgress.Code, appCode(t, err))
}

func TestAllocationServiceRunPersistFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"201", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		&stubSeats{replaceErr: errors.New("connection reset")},
		db,
		nil,
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	_, err := svc.Run(context.Background(), validRequest())
	assert.Equal(t, appErrors.ErrInternal.Code, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// cancellingSeats cancels the run context during persistence so the
// pre-commit cancellation check is what aborts the run.
type cancellingSeats struct {
	cancel context.CancelFunc
}

func (s *cancellingSeats) ReplaceScope(ctx context.Context, exec sqlx.ExtContext, scopeKey string, rows []models.SeatAssignment) error {
	s.cancel()
	return nil
}

func (s *cancellingSeats) ListByScope(ctx context.Context, scopeKey string) ([]models.SeatAssignment, error) {
	return nil, nil
}

func TestAllocationServiceRunCancelledBeforeCommit(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"201", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		&cancellingSeats{cancel: cancel},
		db,
		nil,
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	_, err := svc.Run(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAllocationServiceRunInvokesCoverage(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	coverage := &stubCoverage{summary: &dto.CoverageSummary{AssignedCount: 1}}
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"201", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		&stubSeats{},
		db,
		nil,
		nil,
		coverage,
		nil, nil,
		AllocationConfig{},
	)

	req := validRequest()
	req.AssignCoverage = true
	resp, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.Coverage)
	assert.Equal(t, 1, resp.Coverage.AssignedCount)
	assert.Equal(t, 1, coverage.calls)
}

func TestAllocationServiceRunCoverageFailureDoesNotFailRun(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	coverage := &stubCoverage{err: errors.New("pool unavailable")}
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"201", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		&stubSeats{},
		db,
		nil,
		nil,
		coverage,
		nil, nil,
		AllocationConfig{},
	)

	req := validRequest()
	req.AssignCoverage = true
	resp, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, resp.Coverage)
}

func TestAllocationServicePreviewDoesNotPersist(t *testing.T) {
	seats := &stubSeats{}
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"}, [2]string{"102", "CS"}, [2]string{"201", "ME"}, [2]string{"202", "ME"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{},
		seats,
		nil,
		nil,
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	resp, err := svc.Preview(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Placements, 4)
	assert.True(t, resp.Capacity.Sufficient)
	assert.Nil(t, seats.replaced, "preview never writes")
}

func TestAllocationServicePreviewClassifiesInvalidMapping(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"})},
		&stubRooms{rooms: gridRooms()},
		&stubMappings{
			mappings: []models.DepartmentSubjectMapping{
				{Department: "CS", SubjectID: "sub-1"},
				{Department: "CS", SubjectID: "sub-2"},
			},
			subjects: []models.Subject{
				{ID: "sub-1", Code: "CS201", ExamDate: day, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(12 * time.Hour)},
				{ID: "sub-2", Code: "CS202", ExamDate: day, StartTime: day.Add(11 * time.Hour), EndTime: day.Add(13 * time.Hour)},
			},
		},
		&stubSeats{},
		nil,
		nil,
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	req := validRequest()
	req.GroupingKey = "subject"
	_, err := svc.Preview(context.Background(), req)
	assert.Equal(t, appErrors.ErrInvalidMapping.Code, appCode(t, err))
}

func TestAllocationServicePreviewNoUsableRooms(t *testing.T) {
	svc := NewAllocationService(
		&stubRoster{students: rosterOf([2]string{"101", "CS"})},
		&stubRooms{rooms: []models.Room{{RoomNo: "Hall", Capacity: 40}}},
		&stubMappings{},
		&stubSeats{},
		nil,
		nil,
		nil,
		nil,
		nil, nil,
		AllocationConfig{},
	)

	// A flat-capacity hall cannot serve a column-addressed pattern.
	_, err := svc.Preview(context.Background(), validRequest())
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appCode(t, err))
}

func TestAllocationServiceRunIsRepeatable(t *testing.T) {
	request := validRequest()
	roster := rosterOf([2]string{"101", "CS"}, [2]string{"102", "CS"}, [2]string{"201", "ME"}, [2]string{"202", "ME"})

	var firstRows, secondRows []models.SeatAssignment
	for i := 0; i < 2; i++ {
		db, mock, cleanup := newTxMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		seats := &stubSeats{}
		svc := NewAllocationService(
			&stubRoster{students: roster},
			&stubRooms{rooms: gridRooms()},
			&stubMappings{},
			seats,
			db,
			nil,
			nil,
			nil,
			nil, nil,
			AllocationConfig{},
		)
		_, err := svc.Run(context.Background(), request)
		require.NoError(t, err)
		if i == 0 {
			firstRows = seats.replaced
		} else {
			secondRows = seats.replaced
		}
		cleanup()
	}

	assert.Equal(t, firstRows, secondRows, "re-running the same scope reproduces the plan")
}

func TestAllocationServiceListAssignments(t *testing.T) {
	seats := &stubSeats{listed: []models.SeatAssignment{{RollNo: "101", RoomNo: "R1", SeatNumber: 1}}}
	svc := NewAllocationService(&stubRoster{}, &stubRooms{}, &stubMappings{}, seats, nil, nil, nil, nil, nil, nil, AllocationConfig{})

	rows, err := svc.ListAssignments(context.Background(), "scope")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.ListAssignments(context.Background(), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(t, err))
}
