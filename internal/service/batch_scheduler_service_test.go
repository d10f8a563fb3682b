package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/models"
)

type stubStudentReader struct {
	students []models.Student
	err      error
}

func (r *stubStudentReader) ListByIDs(ctx context.Context, providerID string, ids []string) ([]models.Student, error) {
	return r.students, r.err
}

type stubSessionWriter struct {
	created       []models.ScheduleSession
	createErr     error
	deletedFor    []string
	deleteCount   int
	deleteErr     error
	batchesBefore int
}

func (w *stubSessionWriter) CreateBatch(ctx context.Context, sessions []models.ScheduleSession) ([]models.ScheduleSession, error) {
	if w.createErr != nil {
		return nil, w.createErr
	}
	out := make([]models.ScheduleSession, len(sessions))
	for i, session := range sessions {
		session.ID = fmt.Sprintf("sess-%d", len(w.created)+i+1)
		out[i] = session
	}
	w.created = append(w.created, out...)
	return out, nil
}

func (w *stubSessionWriter) DeleteByProvider(ctx context.Context, providerID string) (int, error) {
	if w.deleteErr != nil {
		return 0, w.deleteErr
	}
	w.deletedFor = append(w.deletedFor, providerID)
	w.batchesBefore = len(w.created)
	return w.deleteCount, nil
}

type stubSnapshotTaker struct {
	saves []string
	err   error
}

func (s *stubSnapshotTaker) SaveSnapshot(ctx context.Context, providerID string) (*dto.SnapshotInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.saves = append(s.saves, providerID)
	return &dto.SnapshotInfo{ProviderID: providerID}, nil
}

func newBatchScheduler(students *stubStudentReader, writer *stubSessionWriter, loader *stubLoader, snapshots *stubSnapshotTaker) *BatchSchedulerService {
	return NewBatchSchedulerService(students, writer, loader, snapshots, DefaultSchedulingRules(), nil, nil, nil)
}

func secondStudent() models.Student {
	student := testStudent()
	student.ID = "stu-2"
	student.FullName = "Bailey Nguyen"
	student.TeacherName = "Mr. Okafor"
	return student
}

func TestScheduleBatchMeetsQuotas(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent(), secondStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{}, nil)

	result, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{StudentIDs: []string{"stu-1", "stu-2"}})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalScheduled)
	assert.Zero(t, result.TotalFailed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.UnplacedStudents)
	assert.False(t, result.CanManuallyPlace)
	require.Len(t, writer.created, 4)

	// No student is double booked within a day.
	byKey := make(map[string]int)
	for _, session := range writer.created {
		assert.Equal(t, defaultServiceType, session.ServiceType)
		byKey[fmt.Sprintf("%s/%d/%s", session.StudentID, session.DayOfWeek, session.StartTime)]++
	}
	for key, count := range byKey {
		assert.Equal(t, 1, count, "duplicate placement for %s", key)
	}
}

func TestScheduleBatchRejectsUnreadyStudent(t *testing.T) {
	unready := testStudent()
	unready.SessionsPerWeek = 0
	students := &stubStudentReader{students: []models.Student{unready, secondStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{}, nil)

	result, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{StudentIDs: []string{"stu-1", "stu-2"}})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "sessions per week and minutes per session must be set before scheduling")

	// The ready student still schedules.
	assert.Equal(t, 2, result.TotalScheduled)
	for _, session := range writer.created {
		assert.Equal(t, "stu-2", session.StudentID)
	}
}

func TestScheduleBatchValidatesPayload(t *testing.T) {
	svc := newBatchScheduler(&stubStudentReader{}, &stubSessionWriter{}, &stubLoader{}, nil)

	_, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{})
	require.Error(t, err)
}

func TestScheduleBatchRescheduleSnapshotsThenClears(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{deleteCount: 3}
	snapshots := &stubSnapshotTaker{}
	svc := newBatchScheduler(students, writer, &stubLoader{}, snapshots)

	result, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{
		StudentIDs: []string{"stu-1"},
		Reschedule: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"prov-1"}, snapshots.saves)
	assert.Equal(t, []string{"prov-1"}, writer.deletedFor)
	// The clear ran before any new session was written.
	assert.Zero(t, writer.batchesBefore)
	assert.Equal(t, 2, result.TotalScheduled)
}

func TestScheduleBatchRescheduleAbortsWhenSnapshotFails(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{}
	snapshots := &stubSnapshotTaker{err: errors.New("redis down")}
	svc := newBatchScheduler(students, writer, &stubLoader{}, snapshots)

	_, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{
		StudentIDs: []string{"stu-1"},
		Reschedule: true,
	})
	require.Error(t, err)
	assert.Empty(t, writer.deletedFor)
	assert.Empty(t, writer.created)
}

func TestScheduleBatchContextLoadFailureSkipsSchoolGroup(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent(), secondStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{bellsErr: errors.New("db gone")}, nil)

	result, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{StudentIDs: []string{"stu-1", "stu-2"}})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFailed)
	assert.Zero(t, result.TotalScheduled)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "could not load scheduling context for Lincoln Elementary")
}

func TestScheduleBatchReportsUnplacedStudents(t *testing.T) {
	// Blanket bell schedule blocks the whole week for grade 3.
	var bells []models.BellSchedule
	for day := 1; day <= 5; day++ {
		bells = append(bells, models.BellSchedule{
			ID:         fmt.Sprintf("bell-%d", day),
			SchoolID:   "Lincoln Elementary",
			GradeLevel: "3",
			DayOfWeek:  day,
			StartTime:  "08:00",
			EndTime:    "15:00",
			PeriodName: "All Day",
		})
	}
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{bells: bells}, nil)

	result, err := svc.ScheduleBatch(context.Background(), "prov-1", dto.BatchScheduleRequest{StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	assert.Zero(t, result.TotalScheduled)
	require.Len(t, result.UnplacedStudents, 1)
	unplaced := result.UnplacedStudents[0]
	assert.Equal(t, "stu-1", unplaced.StudentID)
	assert.Equal(t, 2, unplaced.UnmetCount)
	assert.NotEmpty(t, unplaced.Reasons)
	assert.True(t, result.CanManuallyPlace)
}

func TestTryManualPlacementToleratesAndFlags(t *testing.T) {
	var bells []models.BellSchedule
	for day := 1; day <= 5; day++ {
		bells = append(bells, models.BellSchedule{
			ID:         fmt.Sprintf("bell-%d", day),
			SchoolID:   "Lincoln Elementary",
			GradeLevel: "3",
			DayOfWeek:  day,
			StartTime:  "08:00",
			EndTime:    "15:00",
			PeriodName: "All Day",
		})
	}
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{bells: bells}, nil)

	result, err := svc.TryManualPlacement(context.Background(), "prov-1", dto.ManualPlacementRequest{StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	require.Len(t, result.PlacedSessions, 2)
	assert.Empty(t, result.FailedStudents)
	seen := make(map[string]bool)
	for _, session := range result.PlacedSessions {
		assert.True(t, session.HasConflict)
		require.NotNil(t, session.ConflictReason)
		assert.Contains(t, *session.ConflictReason, "force-placed by manual scheduling")
		assert.Contains(t, *session.ConflictReason, "tolerated:")
		assert.Contains(t, *session.ConflictReason, `bell schedule period "All Day"`)

		key := fmt.Sprintf("%d/%s", session.DayOfWeek, session.StartTime)
		assert.False(t, seen[key], "student double booked at %s", key)
		seen[key] = true
	}
}

func TestTryManualPlacementCleanSlotReasonOmitsToleratedList(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{}
	svc := newBatchScheduler(students, writer, &stubLoader{}, nil)

	result, err := svc.TryManualPlacement(context.Background(), "prov-1", dto.ManualPlacementRequest{StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	require.Len(t, result.PlacedSessions, 2)
	for _, session := range result.PlacedSessions {
		assert.True(t, session.HasConflict)
		require.NotNil(t, session.ConflictReason)
		assert.Equal(t, "force-placed by manual scheduling", *session.ConflictReason)
	}
}

func TestTryManualPlacementPersistFailureReported(t *testing.T) {
	students := &stubStudentReader{students: []models.Student{testStudent()}}
	writer := &stubSessionWriter{createErr: errors.New("insert failed")}
	svc := newBatchScheduler(students, writer, &stubLoader{}, nil)

	result, err := svc.TryManualPlacement(context.Background(), "prov-1", dto.ManualPlacementRequest{StudentIDs: []string{"stu-1"}})
	require.NoError(t, err)

	assert.Empty(t, result.PlacedSessions)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to save manually placed sessions")
}

func TestGroupBySchoolKeepsOrder(t *testing.T) {
	a := testStudent()
	b := secondStudent()
	c := testStudent()
	c.ID = "stu-3"
	c.SchoolSite = "Roosevelt Middle"

	groups := groupBySchool([]models.Student{a, c, b})
	require.Len(t, groups, 2)
	assert.Equal(t, "Lincoln Elementary", groups[0].school)
	require.Len(t, groups[0].students, 2)
	assert.Equal(t, "stu-1", groups[0].students[0].ID)
	assert.Equal(t, "stu-2", groups[0].students[1].ID)
	assert.Equal(t, "Roosevelt Middle", groups[1].school)
}
