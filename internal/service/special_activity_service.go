package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type specialActivityRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.SpecialActivity, error)
	FindByID(ctx context.Context, id string) (*models.SpecialActivity, error)
	Create(ctx context.Context, activity *models.SpecialActivity) error
	Update(ctx context.Context, activity *models.SpecialActivity) error
	Delete(ctx context.Context, id string) error
}

// SaveSpecialActivityRequest captures fields for a special activity block.
type SaveSpecialActivityRequest struct {
	SchoolID     string `json:"school_id" validate:"required"`
	TeacherName  string `json:"teacher_name" validate:"required"`
	DayOfWeek    int    `json:"day_of_week" validate:"required,min=1,max=5"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	ActivityName string `json:"activity_name" validate:"required"`
}

// SpecialActivityService manages teacher-scoped activity blocks. Mutations
// kick off a background scan against the requesting provider's sessions.
type SpecialActivityService struct {
	repo      specialActivityRepository
	scans     scanDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSpecialActivityService creates a new special activity service.
func NewSpecialActivityService(repo specialActivityRepository, scans scanDispatcher, validate *validator.Validate, logger *zap.Logger) *SpecialActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecialActivityService{repo: repo, scans: scans, validator: validate, logger: logger}
}

// ListBySchool returns all activities for a school.
func (s *SpecialActivityService) ListBySchool(ctx context.Context, schoolID string) ([]models.SpecialActivity, error) {
	if strings.TrimSpace(schoolID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school id is required")
	}
	activities, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list special activities")
	}
	return activities, nil
}

// Get returns a special activity by id.
func (s *SpecialActivityService) Get(ctx context.Context, id string) (*models.SpecialActivity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "special activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special activity")
	}
	return activity, nil
}

// Create stores a new activity and schedules a conflict scan.
func (s *SpecialActivityService) Create(ctx context.Context, providerID string, req SaveSpecialActivityRequest) (*models.SpecialActivity, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	activity := &models.SpecialActivity{
		SchoolID:     strings.TrimSpace(req.SchoolID),
		TeacherName:  strings.TrimSpace(req.TeacherName),
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		ActivityName: strings.TrimSpace(req.ActivityName),
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create special activity")
	}

	s.dispatchScan(providerID, *activity)
	return activity, nil
}

// Update modifies an activity and schedules a conflict scan against the
// new window.
func (s *SpecialActivityService) Update(ctx context.Context, providerID, id string, req SaveSpecialActivityRequest) (*models.SpecialActivity, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	activity.SchoolID = strings.TrimSpace(req.SchoolID)
	activity.TeacherName = strings.TrimSpace(req.TeacherName)
	activity.DayOfWeek = req.DayOfWeek
	activity.StartTime = req.StartTime
	activity.EndTime = req.EndTime
	activity.ActivityName = strings.TrimSpace(req.ActivityName)

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update special activity")
	}

	s.dispatchScan(providerID, *activity)
	return activity, nil
}

// Delete removes an activity.
func (s *SpecialActivityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete special activity")
	}
	return nil
}

func (s *SpecialActivityService) validate(req SaveSpecialActivityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special activity payload")
	}
	if !validWindow(req.StartTime, req.EndTime) {
		return appErrors.Clone(appErrors.ErrInvalidTimeFormat, "start and end must be HH:MM with start before end")
	}
	return nil
}

func (s *SpecialActivityService) dispatchScan(providerID string, activity models.SpecialActivity) {
	if s.scans == nil {
		return
	}
	if err := s.scans.EnqueueSpecialActivityScan(providerID, activity); err != nil {
		s.logger.Warn("failed to enqueue special activity scan",
			zap.String("special_activity_id", activity.ID), zap.Error(err))
	}
}
