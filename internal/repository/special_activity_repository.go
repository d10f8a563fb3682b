package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slotwise/caseload-api/internal/models"
)

const specialActivityColumns = "id, school_id, teacher_name, day_of_week, start_time, end_time, activity_name, created_at, updated_at"

// SpecialActivityRepository provides persistence for teacher-scoped
// special activities.
type SpecialActivityRepository struct {
	db *sqlx.DB
}

// NewSpecialActivityRepository creates a new special activity repository.
func NewSpecialActivityRepository(db *sqlx.DB) *SpecialActivityRepository {
	return &SpecialActivityRepository{db: db}
}

// ListBySchool returns all activities for a school, ordered for stable
// validation output.
func (r *SpecialActivityRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.SpecialActivity, error) {
	query := fmt.Sprintf("SELECT %s FROM special_activities WHERE school_id = $1 ORDER BY day_of_week ASC, start_time ASC", specialActivityColumns)
	var activities []models.SpecialActivity
	if err := r.db.SelectContext(ctx, &activities, query, schoolID); err != nil {
		return nil, fmt.Errorf("list special activities by school: %w", err)
	}
	return activities, nil
}

// FindByID loads a special activity by id.
func (r *SpecialActivityRepository) FindByID(ctx context.Context, id string) (*models.SpecialActivity, error) {
	query := fmt.Sprintf("SELECT %s FROM special_activities WHERE id = $1", specialActivityColumns)
	var activity models.SpecialActivity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create stores a new special activity.
func (r *SpecialActivityRepository) Create(ctx context.Context, activity *models.SpecialActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	const query = `INSERT INTO special_activities (id, school_id, teacher_name, day_of_week, start_time, end_time, activity_name, created_at, updated_at) VALUES (:id, :school_id, :teacher_name, :day_of_week, :start_time, :end_time, :activity_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create special activity: %w", err)
	}
	return nil
}

// Update modifies a special activity.
func (r *SpecialActivityRepository) Update(ctx context.Context, activity *models.SpecialActivity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE special_activities SET school_id = :school_id, teacher_name = :teacher_name, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, activity_name = :activity_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update special activity: %w", err)
	}
	return nil
}

// Delete removes a special activity by id.
func (r *SpecialActivityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM special_activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete special activity: %w", err)
	}
	return nil
}
