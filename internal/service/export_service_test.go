package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type stubExportSessions struct {
	sessions []models.ScheduleSession
}

func (s *stubExportSessions) ListByProvider(ctx context.Context, providerID string) ([]models.ScheduleSession, error) {
	return s.sessions, nil
}

type stubExportStudents struct {
	students []models.Student
}

func (s *stubExportStudents) ListByProvider(ctx context.Context, providerID string) ([]models.Student, error) {
	return s.students, nil
}

func exportFixtures() (*stubExportSessions, *stubExportStudents) {
	reason := "force-placed by manual scheduling"
	sessions := &stubExportSessions{sessions: []models.ScheduleSession{
		{ID: "b", StudentID: "stu-1", DayOfWeek: 2, StartTime: "09:00", EndTime: "09:30", ServiceType: "Direct Service", Status: models.SessionStatusActive},
		{ID: "a", StudentID: "stu-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30", ServiceType: "Direct Service", Status: models.SessionStatusNeedsAttention, HasConflict: true, ConflictReason: &reason},
	}}
	students := &stubExportStudents{students: []models.Student{{ID: "stu-1", FullName: "Alex Rivera"}}}
	return sessions, students
}

func TestExportWeeklyScheduleCSV(t *testing.T) {
	sessions, students := exportFixtures()
	svc := NewExportService(sessions, students, nil)

	payload, contentType, err := svc.WeeklySchedule(context.Background(), "prov-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Student,Service,Status,Conflict", strings.TrimSpace(lines[0]))
	// Rows come out day-ordered regardless of storage order.
	assert.Contains(t, lines[1], "Monday")
	assert.Contains(t, lines[1], "Alex Rivera")
	assert.Contains(t, lines[1], "force-placed by manual scheduling")
	assert.Contains(t, lines[2], "Tuesday")
}

func TestExportWeeklyScheduleDefaultsToCSV(t *testing.T) {
	sessions, students := exportFixtures()
	svc := NewExportService(sessions, students, nil)

	_, contentType, err := svc.WeeklySchedule(context.Background(), "prov-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
}

func TestExportWeeklySchedulePDF(t *testing.T) {
	sessions, students := exportFixtures()
	svc := NewExportService(sessions, students, nil)

	payload, contentType, err := svc.WeeklySchedule(context.Background(), "prov-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportWeeklyScheduleUnknownFormat(t *testing.T) {
	sessions, students := exportFixtures()
	svc := NewExportService(sessions, students, nil)

	_, _, err := svc.WeeklySchedule(context.Background(), "prov-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
