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

type bellScheduleRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.BellSchedule, error)
	FindByID(ctx context.Context, id string) (*models.BellSchedule, error)
	Create(ctx context.Context, schedule *models.BellSchedule) error
	Update(ctx context.Context, schedule *models.BellSchedule) error
	Delete(ctx context.Context, id string) error
}

// scanDispatcher enqueues background conflict scans after availability
// records change.
type scanDispatcher interface {
	EnqueueBellScheduleScan(providerID string, schedule models.BellSchedule) error
	EnqueueSpecialActivityScan(providerID string, activity models.SpecialActivity) error
}

// SaveBellScheduleRequest captures fields for a bell schedule period.
type SaveBellScheduleRequest struct {
	SchoolID   string `json:"school_id" validate:"required"`
	GradeLevel string `json:"grade_level" validate:"required"`
	DayOfWeek  int    `json:"day_of_week" validate:"required,min=1,max=5"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	PeriodName string `json:"period_name" validate:"required"`
}

// BellScheduleService manages grade-scoped class periods. Mutations kick
// off a background scan so sessions that now overlap the period get
// flagged for review.
type BellScheduleService struct {
	repo      bellScheduleRepository
	scans     scanDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBellScheduleService creates a new bell schedule service.
func NewBellScheduleService(repo bellScheduleRepository, scans scanDispatcher, validate *validator.Validate, logger *zap.Logger) *BellScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BellScheduleService{repo: repo, scans: scans, validator: validate, logger: logger}
}

// ListBySchool returns all periods for a school.
func (s *BellScheduleService) ListBySchool(ctx context.Context, schoolID string) ([]models.BellSchedule, error) {
	if strings.TrimSpace(schoolID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school id is required")
	}
	schedules, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bell schedules")
	}
	return schedules, nil
}

// Get returns a bell schedule period by id.
func (s *BellScheduleService) Get(ctx context.Context, id string) (*models.BellSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bell schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bell schedule")
	}
	return schedule, nil
}

// Create stores a new period and schedules a conflict scan for the
// requesting provider's sessions.
func (s *BellScheduleService) Create(ctx context.Context, providerID string, req SaveBellScheduleRequest) (*models.BellSchedule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	schedule := &models.BellSchedule{
		SchoolID:   strings.TrimSpace(req.SchoolID),
		GradeLevel: strings.TrimSpace(req.GradeLevel),
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		PeriodName: strings.TrimSpace(req.PeriodName),
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bell schedule")
	}

	s.dispatchScan(providerID, *schedule)
	return schedule, nil
}

// Update modifies a period and schedules a conflict scan against the new
// window.
func (s *BellScheduleService) Update(ctx context.Context, providerID, id string, req SaveBellScheduleRequest) (*models.BellSchedule, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	schedule.SchoolID = strings.TrimSpace(req.SchoolID)
	schedule.GradeLevel = strings.TrimSpace(req.GradeLevel)
	schedule.DayOfWeek = req.DayOfWeek
	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.PeriodName = strings.TrimSpace(req.PeriodName)

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bell schedule")
	}

	s.dispatchScan(providerID, *schedule)
	return schedule, nil
}

// Delete removes a period. Sessions flagged against it keep their flag
// until a human clears them.
func (s *BellScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bell schedule")
	}
	return nil
}

func (s *BellScheduleService) validate(req SaveBellScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bell schedule payload")
	}
	if !validWindow(req.StartTime, req.EndTime) {
		return appErrors.Clone(appErrors.ErrInvalidTimeFormat, "start and end must be HH:MM with start before end")
	}
	return nil
}

func (s *BellScheduleService) dispatchScan(providerID string, schedule models.BellSchedule) {
	if s.scans == nil {
		return
	}
	if err := s.scans.EnqueueBellScheduleScan(providerID, schedule); err != nil {
		s.logger.Warn("failed to enqueue bell schedule scan",
			zap.String("bell_schedule_id", schedule.ID), zap.Error(err))
	}
}
