package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/caseload-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "provider_id", "day_of_week", "start_time", "end_time", "service_type", "status", "has_conflict", "conflict_reason", "created_at", "updated_at"}).
		AddRow("s1", "stu-1", "prov-1", 1, "08:00", "08:30", "Direct Service", "active", false, nil, time.Now(), time.Now())
}

func TestSessionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, provider_id, day_of_week, start_time, end_time, service_type, status, has_conflict, conflict_reason, created_at, updated_at FROM schedule_sessions WHERE 1=1 AND provider_id = $1 AND day_of_week = $2 ORDER BY day_of_week ASC, start_time ASC LIMIT 50 OFFSET 0")).
		WithArgs("prov-1", 1).
		WillReturnRows(sessionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_sessions WHERE 1=1 AND provider_id = $1 AND day_of_week = $2")).
		WithArgs("prov-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SessionFilter{ProviderID: "prov-1", DayOfWeek: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListIgnoresUnknownSort(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY day_of_week ASC, start_time ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(sessionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_sessions WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.SessionFilter{SortBy: "id; DROP TABLE students"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByProviderAndSchool(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_sessions WHERE provider_id = $1 AND student_id IN (SELECT id FROM students WHERE school_site = $2) ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("prov-1", "Lincoln Elementary").
		WillReturnRows(sessionRows())

	sessions, err := repo.ListByProviderAndSchool(context.Background(), "prov-1", "Lincoln Elementary")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreatePopulatesDefaults(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO schedule_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ScheduleSession{StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"}
	require.NoError(t, repo.Create(context.Background(), session))

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.False(t, session.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.CreateBatch(context.Background(), []models.ScheduleSession{
		{StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
		{StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 2, StartTime: "08:00", EndTime: "08:30"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_sessions").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), []models.ScheduleSession{
		{StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryMarkConflict(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_sessions SET has_conflict = TRUE, status = $2, conflict_reason = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("s1", models.SessionStatusNeedsAttention, `Overlaps bell schedule period "Math Block" (09:00-10:00)`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.MarkConflict(context.Background(), "s1", `Overlaps bell schedule period "Math Block" (09:00-10:00)`)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteByProvider(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_sessions WHERE provider_id = $1")).
		WithArgs("prov-1").
		WillReturnResult(sqlmock.NewResult(0, 7))

	removed, err := repo.DeleteByProvider(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.Equal(t, 7, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryReplaceForProvider(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_sessions WHERE provider_id = $1")).
		WithArgs("prov-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO schedule_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForProvider(context.Background(), "prov-1", []models.ScheduleSession{
		{StudentID: "stu-1", ProviderID: "prov-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:30"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
