package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ScheduleSession, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleSession, error)
	Create(ctx context.Context, session *models.ScheduleSession) error
	Update(ctx context.Context, session *models.ScheduleSession) error
	Delete(ctx context.Context, id string) error
}

// SaveSessionRequest captures fields for creating or moving a session by
// hand. Hand-edited sessions bypass slot validation; a follow-up conflict
// scan will flag anything that landed badly.
type SaveSessionRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	DayOfWeek   int    `json:"day_of_week" validate:"required,min=1,max=5"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	ServiceType string `json:"service_type"`
}

// SessionService handles direct session CRUD. Batch placement lives in
// BatchSchedulerService.
type SessionService struct {
	repo      sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(repo sessionRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, validator: validate, logger: logger}
}

// List returns the provider's sessions matching the filter.
func (s *SessionService) List(ctx context.Context, providerID string, filter models.SessionFilter) ([]models.ScheduleSession, *models.Pagination, error) {
	filter.ProviderID = providerID
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return sessions, pagination, nil
}

// Get returns one of the provider's sessions by id.
func (s *SessionService) Get(ctx context.Context, providerID, id string) (*models.ScheduleSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return session, nil
}

// Create stores a hand-placed session.
func (s *SessionService) Create(ctx context.Context, providerID string, req SaveSessionRequest) (*models.ScheduleSession, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	serviceType := req.ServiceType
	if serviceType == "" {
		serviceType = defaultServiceType
	}
	session := &models.ScheduleSession{
		StudentID:   req.StudentID,
		ProviderID:  providerID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ServiceType: serviceType,
		Status:      models.SessionStatusActive,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update moves or re-types one of the provider's sessions. Editing clears
// any conflict flag; a rescan will re-flag if the new slot still collides.
func (s *SessionService) Update(ctx context.Context, providerID, id string, req SaveSessionRequest) (*models.ScheduleSession, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	session, err := s.Get(ctx, providerID, id)
	if err != nil {
		return nil, err
	}

	session.StudentID = req.StudentID
	session.DayOfWeek = req.DayOfWeek
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	if req.ServiceType != "" {
		session.ServiceType = req.ServiceType
	}
	session.Status = models.SessionStatusActive
	session.HasConflict = false
	session.ConflictReason = nil

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Delete removes one of the provider's sessions.
func (s *SessionService) Delete(ctx context.Context, providerID, id string) error {
	if _, err := s.Get(ctx, providerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

func (s *SessionService) validate(req SaveSessionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !validWindow(req.StartTime, req.EndTime) {
		return appErrors.Clone(appErrors.ErrInvalidTimeFormat, "start and end must be HH:MM with start before end")
	}
	return nil
}
