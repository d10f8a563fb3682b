package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slotwise/caseload-api/internal/models"
)

const sessionColumns = "id, student_id, provider_id, day_of_week, start_time, end_time, service_type, status, has_conflict, conflict_reason, created_at, updated_at"

// SessionRepository provides persistence for schedule sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions with optional filtering and pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.ScheduleSession, int, error) {
	base := "FROM schedule_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProviderID != "" {
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", len(args)+1))
		args = append(args, filter.ProviderID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SchoolSite != "" {
		conditions = append(conditions, fmt.Sprintf("student_id IN (SELECT id FROM students WHERE school_site = $%d)", len(args)+1))
		args = append(args, filter.SchoolSite)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.HasConflict != nil {
		conditions = append(conditions, fmt.Sprintf("has_conflict = $%d", len(args)+1))
		args = append(args, *filter.HasConflict)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"start_time":  true,
		"status":      true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.ScheduleSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSession, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_sessions WHERE id = $1", sessionColumns)
	var session models.ScheduleSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByProvider returns every session on a provider's calendar.
func (r *SessionRepository) ListByProvider(ctx context.Context, providerID string) ([]models.ScheduleSession, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_sessions WHERE provider_id = $1 ORDER BY day_of_week ASC, start_time ASC", sessionColumns)
	var sessions []models.ScheduleSession
	if err := r.db.SelectContext(ctx, &sessions, query, providerID); err != nil {
		return nil, fmt.Errorf("list sessions by provider: %w", err)
	}
	return sessions, nil
}

// ListByProviderAndSchool returns a provider's sessions for students
// enrolled at the given school site.
func (r *SessionRepository) ListByProviderAndSchool(ctx context.Context, providerID, schoolSite string) ([]models.ScheduleSession, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_sessions WHERE provider_id = $1 AND student_id IN (SELECT id FROM students WHERE school_site = $2) ORDER BY day_of_week ASC, start_time ASC", sessionColumns)
	var sessions []models.ScheduleSession
	if err := r.db.SelectContext(ctx, &sessions, query, providerID, schoolSite); err != nil {
		return nil, fmt.Errorf("list sessions by provider and school: %w", err)
	}
	return sessions, nil
}

// ListByStudent returns a student's sessions across all providers, ordered
// for deterministic cross-provider checks.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ScheduleSession, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_sessions WHERE student_id = $1 ORDER BY day_of_week ASC, start_time ASC, id ASC", sessionColumns)
	var sessions []models.ScheduleSession
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	return sessions, nil
}

// Create stores a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.ScheduleSession) error {
	prepareSessionRow(session, time.Now().UTC())
	const query = `INSERT INTO schedule_sessions (id, student_id, provider_id, day_of_week, start_time, end_time, service_type, status, has_conflict, conflict_reason, created_at, updated_at) VALUES (:id, :student_id, :provider_id, :day_of_week, :start_time, :end_time, :service_type, :status, :has_conflict, :conflict_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// CreateBatch inserts many sessions within a transaction and returns the
// stored rows with server-generated fields populated.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.ScheduleSession) ([]models.ScheduleSession, error) {
	if len(sessions) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch create sessions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created, err := r.bulkInsertSessions(ctx, tx, sessions)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch create sessions: %w", err)
	}
	return created, nil
}

func (r *SessionRepository) bulkInsertSessions(ctx context.Context, exec sqlx.ExtContext, sessions []models.ScheduleSession) ([]models.ScheduleSession, error) {
	now := time.Now().UTC()
	created := make([]models.ScheduleSession, 0, len(sessions))
	for i := range sessions {
		payload := sessions[i]
		prepareSessionRow(&payload, now)
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO schedule_sessions (id, student_id, provider_id, day_of_week, start_time, end_time, service_type, status, has_conflict, conflict_reason, created_at, updated_at) VALUES (:id, :student_id, :provider_id, :day_of_week, :start_time, :end_time, :service_type, :status, :has_conflict, :conflict_reason, :created_at, :updated_at)`, &payload); err != nil {
			return nil, fmt.Errorf("bulk insert session: %w", err)
		}
		created = append(created, payload)
	}
	return created, nil
}

// Update modifies a session record.
func (r *SessionRepository) Update(ctx context.Context, session *models.ScheduleSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_sessions SET student_id = :student_id, provider_id = :provider_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, service_type = :service_type, status = :status, has_conflict = :has_conflict, conflict_reason = :conflict_reason, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// MarkConflict flags a session for review without touching its time slot.
func (r *SessionRepository) MarkConflict(ctx context.Context, sessionID, reason string) error {
	const query = `UPDATE schedule_sessions SET has_conflict = TRUE, status = $2, conflict_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID, models.SessionStatusNeedsAttention, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark session conflict: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByProvider removes every session on a provider's calendar and
// returns how many rows were deleted.
func (r *SessionRepository) DeleteByProvider(ctx context.Context, providerID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedule_sessions WHERE provider_id = $1`, providerID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by provider: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete sessions by provider: %w", err)
	}
	return int(affected), nil
}

// ReplaceForProvider atomically swaps a provider's calendar for the given
// session rows. Used by snapshot restore.
func (r *SessionRepository) ReplaceForProvider(ctx context.Context, providerID string, sessions []models.ScheduleSession) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace sessions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_sessions WHERE provider_id = $1`, providerID); err != nil {
		err = fmt.Errorf("clear sessions for replace: %w", err)
		return err
	}
	if _, err = r.bulkInsertSessions(ctx, tx, sessions); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace sessions: %w", err)
	}
	return nil
}

func prepareSessionRow(session *models.ScheduleSession, now time.Time) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusActive
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
}
