package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

func TestSchedulingContextInitializeBuildsIndexes(t *testing.T) {
	loader := &stubLoader{
		bells: []models.BellSchedule{
			{ID: "b1", DayOfWeek: 1, GradeLevel: "3", StartTime: "09:00", EndTime: "10:00"},
			{ID: "b2", DayOfWeek: 2, GradeLevel: "3", StartTime: "09:00", EndTime: "10:00"},
		},
		activities: []models.SpecialActivity{
			{ID: "a1", TeacherName: "Ms. Chen", DayOfWeek: 1, StartTime: "13:00", EndTime: "14:00"},
		},
		sessions: []models.ScheduleSession{
			{ID: "s1", StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
		},
	}
	sctx := newTestContext(t, loader)

	assert.True(t, sctx.IsInitialized())
	assert.False(t, sctx.IsStale())
	assert.Len(t, sctx.BellSchedulesOnDay(1), 1)
	assert.Len(t, sctx.BellSchedulesOnDay(2), 1)
	assert.Empty(t, sctx.BellSchedulesOnDay(3))
	// Teacher lookup is case and whitespace insensitive.
	assert.Len(t, sctx.ActivitiesForTeacher(" MS. CHEN "), 1)
	assert.Equal(t, 1, sctx.WeeklySessionCount("stu-1"))
	assert.Equal(t, 1, sctx.DaySessionCount("stu-1", 1))
	assert.Zero(t, sctx.DaySessionCount("stu-1", 2))
}

func TestSchedulingContextRegisterSessionsVisibleImmediately(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{})

	sctx.RegisterSessions(models.ScheduleSession{ID: "s1", StudentID: "stu-1", DayOfWeek: 3, StartTime: "10:00", EndTime: "10:30"})

	assert.Equal(t, 1, sctx.WeeklySessionCount("stu-1"))
	assert.Len(t, sctx.SessionsOnDay(3), 1)
	assert.Len(t, sctx.SessionsForStudentOnDay("stu-1", 3), 1)
}

func TestSchedulingContextStalenessAndRefresh(t *testing.T) {
	loader := &stubLoader{}
	sctx := newTestContext(t, loader)

	sctx.RegisterSessions(models.ScheduleSession{ID: "s1", StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"})
	sctx.MarkStale()
	assert.True(t, sctx.IsStale())

	// An outside write landed; refresh replaces local state with the
	// loader's view and clears the flag.
	loader.sessions = []models.ScheduleSession{
		{ID: "s2", StudentID: "stu-1", DayOfWeek: 2, StartTime: "09:00", EndTime: "09:30"},
	}
	require.NoError(t, sctx.Refresh(context.Background()))

	assert.False(t, sctx.IsStale())
	assert.Zero(t, sctx.DaySessionCount("stu-1", 1))
	assert.Equal(t, 1, sctx.DaySessionCount("stu-1", 2))
}

func TestSchedulingContextRefreshRequiresInitialize(t *testing.T) {
	sctx := NewSchedulingContext(&stubLoader{}, nil)

	err := sctx.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrContextLoad.Code, appErrors.FromError(err).Code)
}
