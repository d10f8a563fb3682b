package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slotwise/caseload-api/internal/models"
)

const bellScheduleColumns = "id, school_id, grade_level, day_of_week, start_time, end_time, period_name, created_at, updated_at"

// BellScheduleRepository provides persistence for bell schedule periods.
type BellScheduleRepository struct {
	db *sqlx.DB
}

// NewBellScheduleRepository creates a new bell schedule repository.
func NewBellScheduleRepository(db *sqlx.DB) *BellScheduleRepository {
	return &BellScheduleRepository{db: db}
}

// ListBySchool returns all periods for a school, ordered for stable
// validation output.
func (r *BellScheduleRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.BellSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM bell_schedules WHERE school_id = $1 ORDER BY day_of_week ASC, start_time ASC", bellScheduleColumns)
	var schedules []models.BellSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, schoolID); err != nil {
		return nil, fmt.Errorf("list bell schedules by school: %w", err)
	}
	return schedules, nil
}

// FindByID loads a bell schedule period by id.
func (r *BellScheduleRepository) FindByID(ctx context.Context, id string) (*models.BellSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM bell_schedules WHERE id = $1", bellScheduleColumns)
	var schedule models.BellSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create stores a new bell schedule period.
func (r *BellScheduleRepository) Create(ctx context.Context, schedule *models.BellSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO bell_schedules (id, school_id, grade_level, day_of_week, start_time, end_time, period_name, created_at, updated_at) VALUES (:id, :school_id, :grade_level, :day_of_week, :start_time, :end_time, :period_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create bell schedule: %w", err)
	}
	return nil
}

// Update modifies a bell schedule period.
func (r *BellScheduleRepository) Update(ctx context.Context, schedule *models.BellSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bell_schedules SET school_id = :school_id, grade_level = :grade_level, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, period_name = :period_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update bell schedule: %w", err)
	}
	return nil
}

// Delete removes a bell schedule period by id.
func (r *BellScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bell_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete bell schedule: %w", err)
	}
	return nil
}
