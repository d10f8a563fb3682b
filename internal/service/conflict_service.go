package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type conflictSessionStore interface {
	ListByProviderAndSchool(ctx context.Context, providerID, schoolSite string) ([]models.ScheduleSession, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ScheduleSession, error)
	MarkConflict(ctx context.Context, sessionID, reason string) error
}

type schoolStudentReader interface {
	ListBySchool(ctx context.Context, schoolSite string) ([]models.Student, error)
}

// ConflictService runs the reactive reconciliation pass after a bell
// schedule or special activity changes. It marks newly conflicting sessions
// for review; it never deletes or reschedules them, so the calendar stays
// intact until a human resolves the flags.
type ConflictService struct {
	sessions  conflictSessionStore
	students  schoolStudentReader
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewConflictService wires conflict resolver dependencies.
func NewConflictService(sessions conflictSessionStore, students schoolStudentReader, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{sessions: sessions, students: students, validator: validate, logger: logger, metrics: metrics}
}

// ResolveBellScheduleConflicts rescans the provider's sessions at the bell
// schedule's school and flags any that now overlap a covered grade's
// period. A record without a school id skips the scan entirely rather than
// risking cross-school false positives.
func (s *ConflictService) ResolveBellScheduleConflicts(ctx context.Context, providerID string, bell models.BellSchedule) (*dto.ConflictScanResult, error) {
	if bell.SchoolID == "" {
		s.logger.Warn("skipping bell schedule conflict scan: record has no school id",
			zap.String("bell_schedule_id", bell.ID))
		return &dto.ConflictScanResult{Skipped: true}, nil
	}
	window, ok := parseWindow(bell.StartTime, bell.EndTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("bell schedule %s has a malformed time window", bell.ID))
	}

	reason := fmt.Sprintf("Overlaps bell schedule period %q (%s-%s)", bell.PeriodName, minutesToTime(window.start), minutesToTime(window.end))
	return s.scan(ctx, providerID, bell.SchoolID, func(session models.ScheduleSession, student models.Student) (string, bool) {
		if session.DayOfWeek != bell.DayOfWeek {
			return "", false
		}
		if !bell.AppliesToGrade(student.NormalizedGrade()) {
			return "", false
		}
		if !timesOverlap(session.StartTime, session.EndTime, bell.StartTime, bell.EndTime) {
			return "", false
		}
		return reason, true
	})
}

// ResolveSpecialActivityConflicts is the teacher-scoped counterpart of
// ResolveBellScheduleConflicts.
func (s *ConflictService) ResolveSpecialActivityConflicts(ctx context.Context, providerID string, activity models.SpecialActivity) (*dto.ConflictScanResult, error) {
	if activity.SchoolID == "" {
		s.logger.Warn("skipping special activity conflict scan: record has no school id",
			zap.String("special_activity_id", activity.ID))
		return &dto.ConflictScanResult{Skipped: true}, nil
	}
	window, ok := parseWindow(activity.StartTime, activity.EndTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("special activity %s has a malformed time window", activity.ID))
	}

	reason := fmt.Sprintf("Overlaps special activity %q (%s-%s)", activity.ActivityName, minutesToTime(window.start), minutesToTime(window.end))
	return s.scan(ctx, providerID, activity.SchoolID, func(session models.ScheduleSession, student models.Student) (string, bool) {
		if session.DayOfWeek != activity.DayOfWeek {
			return "", false
		}
		if !activity.AppliesToTeacher(student.TeacherName) {
			return "", false
		}
		if !timesOverlap(session.StartTime, session.EndTime, activity.StartTime, activity.EndTime) {
			return "", false
		}
		return reason, true
	})
}

func (s *ConflictService) scan(ctx context.Context, providerID, schoolSite string, match func(models.ScheduleSession, models.Student) (string, bool)) (*dto.ConflictScanResult, error) {
	students, err := s.students.ListBySchool(ctx, schoolSite)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for conflict scan")
	}
	byID := make(map[string]models.Student, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}

	sessions, err := s.sessions.ListByProviderAndSchool(ctx, providerID, schoolSite)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions for conflict scan")
	}

	result := &dto.ConflictScanResult{}
	for _, session := range sessions {
		student, ok := byID[session.StudentID]
		if !ok {
			continue
		}
		reason, matched := match(session, student)
		if !matched {
			continue
		}
		if err := s.sessions.MarkConflict(ctx, session.ID, reason); err != nil {
			s.logger.Error("failed to flag conflicting session",
				zap.String("session_id", session.ID), zap.Error(err))
			result.Failed++
			continue
		}
		result.Marked++
		result.Marks = append(result.Marks, models.SessionConflictMark{
			SessionID: session.ID,
			StudentID: session.StudentID,
			DayOfWeek: session.DayOfWeek,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
			Reason:    reason,
		})
	}

	if s.metrics != nil {
		s.metrics.AddConflictsFlagged(result.Marked)
	}
	s.logger.Info("conflict scan completed",
		zap.String("school", schoolSite),
		zap.Int("marked", result.Marked),
		zap.Int("failed", result.Failed))
	return result, nil
}

// CheckCrossProviderConflicts reports whether another provider already has
// an overlapping session with the student at the requested time. Read-only;
// used by interactive placement flows, never by the batch path.
func (s *ConflictService) CheckCrossProviderConflicts(ctx context.Context, providerID string, query dto.CrossProviderConflictQuery) (*dto.CrossProviderConflictResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cross-provider conflict query")
	}
	startMin, err := timeToMinutes(query.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := timeToMinutes(query.EndTime)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByStudent(ctx, query.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student sessions")
	}

	for _, session := range sessions {
		if session.ID == query.ExcludeSessionID || session.ProviderID == providerID {
			continue
		}
		if session.DayOfWeek != query.DayOfWeek {
			continue
		}
		window, ok := parseWindow(session.StartTime, session.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			return &dto.CrossProviderConflictResult{
				HasConflict: true,
				ConflictDetails: fmt.Sprintf("provider %s already has a %s session with this student %s-%s",
					session.ProviderID, session.ServiceType, session.StartTime, session.EndTime),
			}, nil
		}
	}

	return &dto.CrossProviderConflictResult{}, nil
}
