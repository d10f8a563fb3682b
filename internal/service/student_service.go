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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest captures fields for adding a student to a caseload.
type CreateStudentRequest struct {
	FullName          string `json:"full_name" validate:"required"`
	GradeLevel        string `json:"grade_level" validate:"required"`
	SessionsPerWeek   int    `json:"sessions_per_week" validate:"min=0,max=10"`
	MinutesPerSession int    `json:"minutes_per_session" validate:"min=0,max=240"`
	TeacherName       string `json:"teacher_name"`
	SchoolSite        string `json:"school_site" validate:"required"`
	SchoolDistrict    string `json:"school_district"`
}

// UpdateStudentRequest modifies student fields.
type UpdateStudentRequest struct {
	FullName          string `json:"full_name" validate:"required"`
	GradeLevel        string `json:"grade_level" validate:"required"`
	SessionsPerWeek   int    `json:"sessions_per_week" validate:"min=0,max=10"`
	MinutesPerSession int    `json:"minutes_per_session" validate:"min=0,max=240"`
	TeacherName       string `json:"teacher_name"`
	SchoolSite        string `json:"school_site" validate:"required"`
	SchoolDistrict    string `json:"school_district"`
}

// StudentService handles caseload student workflows. Every operation is
// scoped to the requesting provider.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns the provider's students matching the filter.
func (s *StudentService) List(ctx context.Context, providerID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	filter.ProviderID = providerID
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns one of the provider's students by id.
func (s *StudentService) Get(ctx context.Context, providerID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create adds a student to the provider's caseload.
func (s *StudentService) Create(ctx context.Context, providerID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FullName:          strings.TrimSpace(req.FullName),
		GradeLevel:        strings.TrimSpace(req.GradeLevel),
		SessionsPerWeek:   req.SessionsPerWeek,
		MinutesPerSession: req.MinutesPerSession,
		TeacherName:       strings.TrimSpace(req.TeacherName),
		SchoolSite:        strings.TrimSpace(req.SchoolSite),
		SchoolDistrict:    strings.TrimSpace(req.SchoolDistrict),
		ProviderID:        providerID,
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created",
		zap.String("student_id", student.ID),
		zap.String("provider_id", providerID),
		zap.String("school_site", student.SchoolSite))
	return student, nil
}

// Update modifies one of the provider's students.
func (s *StudentService) Update(ctx context.Context, providerID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, providerID, id)
	if err != nil {
		return nil, err
	}

	student.FullName = strings.TrimSpace(req.FullName)
	student.GradeLevel = strings.TrimSpace(req.GradeLevel)
	student.SessionsPerWeek = req.SessionsPerWeek
	student.MinutesPerSession = req.MinutesPerSession
	student.TeacherName = strings.TrimSpace(req.TeacherName)
	student.SchoolSite = strings.TrimSpace(req.SchoolSite)
	student.SchoolDistrict = strings.TrimSpace(req.SchoolDistrict)

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes one of the provider's students.
func (s *StudentService) Delete(ctx context.Context, providerID, id string) error {
	if _, err := s.Get(ctx, providerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
