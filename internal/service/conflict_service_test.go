package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type stubConflictStore struct {
	sessions    []models.ScheduleSession
	byStudent   []models.ScheduleSession
	marked      map[string]string
	markErrFor  map[string]error
	listErr     error
	listCalled  bool
	markedOrder []string
}

func newStubConflictStore(sessions ...models.ScheduleSession) *stubConflictStore {
	return &stubConflictStore{sessions: sessions, marked: map[string]string{}}
}

func (s *stubConflictStore) ListByProviderAndSchool(ctx context.Context, providerID, schoolSite string) ([]models.ScheduleSession, error) {
	s.listCalled = true
	return s.sessions, s.listErr
}

func (s *stubConflictStore) ListByStudent(ctx context.Context, studentID string) ([]models.ScheduleSession, error) {
	return s.byStudent, s.listErr
}

func (s *stubConflictStore) MarkConflict(ctx context.Context, sessionID, reason string) error {
	if err := s.markErrFor[sessionID]; err != nil {
		return err
	}
	s.marked[sessionID] = reason
	s.markedOrder = append(s.markedOrder, sessionID)
	return nil
}

type stubSchoolStudents struct {
	students []models.Student
	err      error
	called   bool
}

func (r *stubSchoolStudents) ListBySchool(ctx context.Context, schoolSite string) ([]models.Student, error) {
	r.called = true
	return r.students, r.err
}

func testBell() models.BellSchedule {
	return models.BellSchedule{
		ID:         "bell-1",
		SchoolID:   "Lincoln Elementary",
		GradeLevel: "3",
		DayOfWeek:  2,
		StartTime:  "09:00",
		EndTime:    "10:00",
		PeriodName: "Math Block",
	}
}

func TestResolveBellScheduleConflictsMarksOverlaps(t *testing.T) {
	store := newStubConflictStore(
		// Overlapping, matching grade and day: marked.
		models.ScheduleSession{ID: "sess-1", StudentID: "stu-1", DayOfWeek: 2, StartTime: "09:30", EndTime: "10:00"},
		// Same day, adjacent window: untouched.
		models.ScheduleSession{ID: "sess-2", StudentID: "stu-1", DayOfWeek: 2, StartTime: "10:00", EndTime: "10:30"},
		// Overlapping window, wrong day: untouched.
		models.ScheduleSession{ID: "sess-3", StudentID: "stu-1", DayOfWeek: 3, StartTime: "09:30", EndTime: "10:00"},
		// Overlapping but the student is grade 5: untouched.
		models.ScheduleSession{ID: "sess-4", StudentID: "stu-5", DayOfWeek: 2, StartTime: "09:00", EndTime: "09:30"},
	)
	fifth := testStudent()
	fifth.ID = "stu-5"
	fifth.GradeLevel = "5"
	students := &stubSchoolStudents{students: []models.Student{testStudent(), fifth}}

	svc := NewConflictService(store, students, nil, nil, nil)
	result, err := svc.ResolveBellScheduleConflicts(context.Background(), "prov-1", testBell())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Marked)
	assert.Zero(t, result.Failed)
	assert.False(t, result.Skipped)
	require.Len(t, store.marked, 1)
	assert.Equal(t, `Overlaps bell schedule period "Math Block" (09:00-10:00)`, store.marked["sess-1"])
	require.Len(t, result.Marks, 1)
	assert.Equal(t, "sess-1", result.Marks[0].SessionID)

	// All four sessions remain in the store: marking never deletes.
	assert.Len(t, store.sessions, 4)
}

func TestResolveBellScheduleConflictsSkipsWithoutSchool(t *testing.T) {
	store := newStubConflictStore()
	students := &stubSchoolStudents{}
	svc := NewConflictService(store, students, nil, nil, nil)

	bell := testBell()
	bell.SchoolID = ""
	result, err := svc.ResolveBellScheduleConflicts(context.Background(), "prov-1", bell)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Zero(t, result.Marked)
	assert.False(t, store.listCalled)
	assert.False(t, students.called)
}

func TestResolveBellScheduleConflictsRejectsMalformedWindow(t *testing.T) {
	svc := NewConflictService(newStubConflictStore(), &stubSchoolStudents{}, nil, nil, nil)

	bell := testBell()
	bell.EndTime = "25:99"
	_, err := svc.ResolveBellScheduleConflicts(context.Background(), "prov-1", bell)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code)
}

func TestResolveBellScheduleConflictsContinuesPastMarkFailure(t *testing.T) {
	store := newStubConflictStore(
		models.ScheduleSession{ID: "sess-1", StudentID: "stu-1", DayOfWeek: 2, StartTime: "09:00", EndTime: "09:30"},
		models.ScheduleSession{ID: "sess-2", StudentID: "stu-1", DayOfWeek: 2, StartTime: "09:30", EndTime: "10:00"},
	)
	store.markErrFor = map[string]error{"sess-1": errors.New("update failed")}
	students := &stubSchoolStudents{students: []models.Student{testStudent()}}

	svc := NewConflictService(store, students, nil, nil, nil)
	result, err := svc.ResolveBellScheduleConflicts(context.Background(), "prov-1", testBell())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"sess-2"}, store.markedOrder)
}

func TestResolveSpecialActivityConflictsMatchesTeacher(t *testing.T) {
	store := newStubConflictStore(
		models.ScheduleSession{ID: "sess-1", StudentID: "stu-1", DayOfWeek: 4, StartTime: "13:00", EndTime: "13:30"},
		models.ScheduleSession{ID: "sess-2", StudentID: "stu-2", DayOfWeek: 4, StartTime: "13:00", EndTime: "13:30"},
	)
	other := testStudent()
	other.ID = "stu-2"
	other.TeacherName = "Mr. Okafor"
	students := &stubSchoolStudents{students: []models.Student{testStudent(), other}}

	svc := NewConflictService(store, students, nil, nil, nil)
	result, err := svc.ResolveSpecialActivityConflicts(context.Background(), "prov-1", models.SpecialActivity{
		ID:           "act-1",
		SchoolID:     "Lincoln Elementary",
		TeacherName:  "Ms. Chen",
		DayOfWeek:    4,
		StartTime:    "12:30",
		EndTime:      "13:15",
		ActivityName: "Assembly",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, `Overlaps special activity "Assembly" (12:30-13:15)`, store.marked["sess-1"])
	_, markedOther := store.marked["sess-2"]
	assert.False(t, markedOther)
}

func TestCheckCrossProviderConflictsFindsOverlap(t *testing.T) {
	store := newStubConflictStore()
	store.byStudent = []models.ScheduleSession{
		{ID: "sess-1", StudentID: "stu-1", ProviderID: "prov-2", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30", ServiceType: "Speech Therapy"},
	}
	svc := NewConflictService(store, &stubSchoolStudents{}, nil, nil, nil)

	result, err := svc.CheckCrossProviderConflicts(context.Background(), "prov-1", dto.CrossProviderConflictQuery{
		StudentID: "stu-1",
		DayOfWeek: 1,
		StartTime: "09:15",
		EndTime:   "09:45",
	})
	require.NoError(t, err)

	assert.True(t, result.HasConflict)
	assert.Equal(t, "provider prov-2 already has a Speech Therapy session with this student 09:00-09:30", result.ConflictDetails)
}

func TestCheckCrossProviderConflictsIgnoresOwnAndExcluded(t *testing.T) {
	store := newStubConflictStore()
	store.byStudent = []models.ScheduleSession{
		{ID: "sess-own", StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30"},
		{ID: "sess-excl", StudentID: "stu-1", ProviderID: "prov-2", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30"},
	}
	svc := NewConflictService(store, &stubSchoolStudents{}, nil, nil, nil)

	result, err := svc.CheckCrossProviderConflicts(context.Background(), "prov-1", dto.CrossProviderConflictQuery{
		StudentID:        "stu-1",
		DayOfWeek:        1,
		StartTime:        "09:00",
		EndTime:          "09:30",
		ExcludeSessionID: "sess-excl",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestCheckCrossProviderConflictsValidatesQuery(t *testing.T) {
	svc := NewConflictService(newStubConflictStore(), &stubSchoolStudents{}, nil, nil, nil)

	_, err := svc.CheckCrossProviderConflicts(context.Background(), "prov-1", dto.CrossProviderConflictQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
