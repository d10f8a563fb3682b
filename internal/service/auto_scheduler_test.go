package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/models"
)

func TestPlanStudentSessionsSpreadsAcrossDays(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{})

	outcome := planStudentSessions(testStudent(), sctx, DefaultSchedulingRules())

	require.Len(t, outcome.Sessions, 2)
	assert.Zero(t, outcome.Unmet)
	assert.Empty(t, outcome.Reasons)

	// Each acceptance re-ranks the week, so the second session lands on a
	// fresh day instead of stacking onto Monday.
	first, second := outcome.Sessions[0], outcome.Sessions[1]
	assert.Equal(t, 1, first.DayOfWeek)
	assert.Equal(t, "08:00", first.StartTime)
	assert.Equal(t, "08:30", first.EndTime)
	assert.Equal(t, 2, second.DayOfWeek)
	assert.Equal(t, "08:00", second.StartTime)
	assert.Equal(t, "08:30", second.EndTime)

	for _, session := range outcome.Sessions {
		assert.Equal(t, "stu-1", session.StudentID)
		assert.Equal(t, "prov-1", session.ProviderID)
		assert.Equal(t, models.SessionStatusActive, session.Status)
	}
}

func TestPlanStudentSessionsHonorsExistingCount(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{sessions: []models.ScheduleSession{{
		ID:        "sess-1",
		StudentID: "stu-1",
		DayOfWeek: 1,
		StartTime: "08:00",
		EndTime:   "08:30",
	}}})

	outcome := planStudentSessions(testStudent(), sctx, DefaultSchedulingRules())

	require.Len(t, outcome.Sessions, 1)
	assert.Zero(t, outcome.Unmet)
	// The busiest day ranks last, so the new session avoids Monday.
	assert.Equal(t, 2, outcome.Sessions[0].DayOfWeek)
}

func TestPlanStudentSessionsNoDeficit(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{sessions: []models.ScheduleSession{
		{ID: "a", StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
		{ID: "b", StudentID: "stu-1", DayOfWeek: 2, StartTime: "08:00", EndTime: "08:30"},
	}})

	outcome := planStudentSessions(testStudent(), sctx, DefaultSchedulingRules())
	assert.Empty(t, outcome.Sessions)
	assert.Zero(t, outcome.Unmet)
}

func TestPlanStudentSessionsReportsUnmetWithSampledReasons(t *testing.T) {
	// A bell schedule blanketing the whole school day for every weekday
	// leaves nowhere to place this grade.
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
	sctx := newTestContext(t, &stubLoader{bells: bells})

	outcome := planStudentSessions(testStudent(), sctx, DefaultSchedulingRules())

	assert.Empty(t, outcome.Sessions)
	assert.Equal(t, 2, outcome.Unmet)
	require.NotEmpty(t, outcome.Reasons)
	assert.LessOrEqual(t, len(outcome.Reasons), DefaultSchedulingRules().RejectionSampleSize)

	seen := make(map[string]struct{})
	for _, reason := range outcome.Reasons {
		_, dup := seen[reason]
		assert.False(t, dup, "duplicate rejection reason sampled: %s", reason)
		seen[reason] = struct{}{}
	}
}

func TestRankDaysPrefersLeastLoaded(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{sessions: []models.ScheduleSession{
		{ID: "a", StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
		{ID: "b", StudentID: "stu-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30"},
		{ID: "c", StudentID: "stu-1", DayOfWeek: 3, StartTime: "08:00", EndTime: "08:30"},
	}})

	order := rankDays("stu-1", sctx, nil)
	assert.Equal(t, []int{2, 4, 5, 3, 1}, order)
}

func TestRankDaysCountsPending(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{})
	pending := []models.ScheduleSession{
		{StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
		{StudentID: "stu-1", DayOfWeek: 2, StartTime: "08:00", EndTime: "08:30"},
	}

	order := rankDays("stu-1", sctx, pending)
	assert.Equal(t, []int{3, 4, 5, 1, 2}, order)
}

func TestRankDaysTieKeepsWeekdayOrder(t *testing.T) {
	sctx := newTestContext(t, &stubLoader{})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rankDays("stu-1", sctx, nil))
}
