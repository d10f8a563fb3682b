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

const defaultServiceType = "Direct Service"

type caseloadStudentReader interface {
	ListByIDs(ctx context.Context, providerID string, ids []string) ([]models.Student, error)
}

type batchSessionWriter interface {
	CreateBatch(ctx context.Context, sessions []models.ScheduleSession) ([]models.ScheduleSession, error)
	DeleteByProvider(ctx context.Context, providerID string) (int, error)
}

type snapshotTaker interface {
	SaveSnapshot(ctx context.Context, providerID string) (*dto.SnapshotInfo, error)
}

// BatchSchedulerService schedules a collection of students, possibly
// spanning multiple schools, one school group at a time.
type BatchSchedulerService struct {
	students  caseloadStudentReader
	sessions  batchSessionWriter
	loader    contextLoader
	snapshots snapshotTaker
	rules     SchedulingRules
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewBatchSchedulerService wires batch scheduler dependencies.
func NewBatchSchedulerService(
	students caseloadStudentReader,
	sessions batchSessionWriter,
	loader contextLoader,
	snapshots snapshotTaker,
	rules SchedulingRules,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *BatchSchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.SlotGranularityMins <= 0 {
		rules = DefaultSchedulingRules()
	}
	return &BatchSchedulerService{
		students:  students,
		sessions:  sessions,
		loader:    loader,
		snapshots: snapshots,
		rules:     rules,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// schoolGroup preserves caller order within one school's student set.
type schoolGroup struct {
	school   string
	district string
	students []models.Student
}

// ScheduleBatch auto-schedules the requested students. Individual student
// failures never abort the batch; a context load failure aborts only that
// school's group. The returned result always reports per-student outcomes.
func (s *BatchSchedulerService) ScheduleBatch(ctx context.Context, providerID string, req dto.BatchScheduleRequest) (*dto.BatchScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch schedule payload")
	}

	if req.Reschedule {
		// Snapshot first: it is the sole recovery path once the bulk
		// delete below runs.
		if s.snapshots == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "snapshot manager unavailable for reschedule")
		}
		if _, err := s.snapshots.SaveSnapshot(ctx, providerID); err != nil {
			return nil, err
		}
		removed, err := s.sessions.DeleteByProvider(ctx, providerID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear sessions for reschedule")
		}
		s.logger.Info("cleared provider sessions for reschedule",
			zap.String("provider_id", providerID), zap.Int("removed", removed))
	}

	students, err := s.students.ListByIDs(ctx, providerID, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	result := &dto.BatchScheduleResult{
		Errors:           []string{},
		UnplacedStudents: []dto.UnplacedStudent{},
	}

	ready := make([]models.Student, 0, len(students))
	for _, student := range students {
		if !student.SchedulingReady() {
			result.TotalFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: sessions per week and minutes per session must be set before scheduling", student.FullName))
			continue
		}
		ready = append(ready, student)
	}

	for _, group := range groupBySchool(ready) {
		sctx := NewSchedulingContext(s.loader, s.logger)
		if err := sctx.Initialize(ctx, providerID, group.school, group.district); err != nil {
			s.logger.Error("scheduling context load failed, skipping school group",
				zap.String("school", group.school), zap.Error(err))
			for _, student := range group.students {
				result.TotalFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: could not load scheduling context for %s", student.FullName, group.school))
			}
			continue
		}

		for _, student := range group.students {
			outcome := planStudentSessions(student, sctx, s.rules)
			if created, ok := s.persistOutcome(ctx, student, outcome.Sessions, result); ok {
				sctx.RegisterSessions(created...)
				result.TotalScheduled += len(created)
			} else {
				continue
			}
			if outcome.Unmet > 0 {
				result.TotalFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %d of %d weekly sessions could not be placed", student.FullName, outcome.Unmet, student.SessionsPerWeek))
				result.UnplacedStudents = append(result.UnplacedStudents, dto.UnplacedStudent{
					StudentID:  student.ID,
					FullName:   student.FullName,
					SchoolSite: student.SchoolSite,
					UnmetCount: outcome.Unmet,
					Reasons:    outcome.Reasons,
				})
			}
		}
	}

	result.CanManuallyPlace = len(result.UnplacedStudents) > 0
	if s.metrics != nil {
		s.metrics.AddSessionsScheduled(result.TotalScheduled)
		s.metrics.AddSchedulingFailures(result.TotalFailed)
	}
	s.logger.Info("batch schedule finished",
		zap.String("provider_id", providerID),
		zap.Int("scheduled", result.TotalScheduled),
		zap.Int("failed", result.TotalFailed),
		zap.Int("unplaced", len(result.UnplacedStudents)))
	return result, nil
}

// TryManualPlacement retries unplaced students with relaxed constraints.
// Bell-schedule, special-activity, capacity and minute-limit violations are
// tolerated and recorded on the session; the daily cutoff and same-student
// double booking still reject.
func (s *BatchSchedulerService) TryManualPlacement(ctx context.Context, providerID string, req dto.ManualPlacementRequest) (*dto.ManualPlacementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual placement payload")
	}

	students, err := s.students.ListByIDs(ctx, providerID, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	result := &dto.ManualPlacementResult{
		PlacedSessions: []models.ScheduleSession{},
		FailedStudents: []dto.UnplacedStudent{},
		Errors:         []string{},
	}

	for _, group := range groupBySchool(students) {
		sctx := NewSchedulingContext(s.loader, s.logger)
		if err := sctx.Initialize(ctx, providerID, group.school, group.district); err != nil {
			s.logger.Error("scheduling context load failed during manual placement",
				zap.String("school", group.school), zap.Error(err))
			for _, student := range group.students {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: could not load scheduling context for %s", student.FullName, group.school))
				result.FailedStudents = append(result.FailedStudents, dto.UnplacedStudent{
					StudentID:  student.ID,
					FullName:   student.FullName,
					SchoolSite: student.SchoolSite,
					UnmetCount: student.SessionsPerWeek,
				})
			}
			continue
		}

		for _, student := range group.students {
			outcome := s.forcePlaceStudent(student, sctx)
			created, ok := s.persistManual(ctx, student, outcome.Sessions, result)
			if ok {
				sctx.RegisterSessions(created...)
				result.PlacedSessions = append(result.PlacedSessions, created...)
			}
			if outcome.Unmet > 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %d weekly sessions still unplaced after manual placement", student.FullName, outcome.Unmet))
				result.FailedStudents = append(result.FailedStudents, dto.UnplacedStudent{
					StudentID:  student.ID,
					FullName:   student.FullName,
					SchoolSite: student.SchoolSite,
					UnmetCount: outcome.Unmet,
					Reasons:    outcome.Reasons,
				})
			}
		}
	}

	if s.metrics != nil {
		s.metrics.AddSessionsScheduled(len(result.PlacedSessions))
	}
	return result, nil
}

// forcePlaceStudent fills the deficit while tolerating soft violations.
// Every session produced here is written flagged for human review.
func (s *BatchSchedulerService) forcePlaceStudent(student models.Student, sctx *SchedulingContext) studentScheduleOutcome {
	outcome := studentScheduleOutcome{}
	deficit := student.SessionsPerWeek - sctx.WeeklySessionCount(student.ID)
	if deficit <= 0 || student.MinutesPerSession <= 0 {
		return outcome
	}

	duration := student.MinutesPerSession
	for deficit > 0 {
		placed := false
		it := newSlotIterator(rankDays(student.ID, sctx, outcome.Sessions), s.rules.DayStartMinutes, s.rules.DayEndMinutes, s.rules.SlotGranularityMins)
		for slot, ok := it.Next(); ok; slot, ok = it.Next() {
			hardReject, tolerated := relaxedSlotCheck(student, slot.Day, slot.Start, slot.Start+duration, sctx, outcome.Sessions, s.rules)
			if hardReject != "" {
				continue
			}
			reason := "force-placed by manual scheduling"
			if len(tolerated) > 0 {
				reason = fmt.Sprintf("%s; tolerated: %s", reason, joinReasons(tolerated))
			}
			outcome.Sessions = append(outcome.Sessions, models.ScheduleSession{
				StudentID:      student.ID,
				ProviderID:     student.ProviderID,
				DayOfWeek:      slot.Day,
				StartTime:      minutesToTime(slot.Start),
				EndTime:        minutesToTime(slot.Start + duration),
				Status:         models.SessionStatusActive,
				HasConflict:    true,
				ConflictReason: &reason,
			})
			deficit--
			placed = true
			break
		}
		if !placed {
			break
		}
	}

	outcome.Unmet = deficit
	return outcome
}

func (s *BatchSchedulerService) persistOutcome(ctx context.Context, student models.Student, sessions []models.ScheduleSession, result *dto.BatchScheduleResult) ([]models.ScheduleSession, bool) {
	if len(sessions) == 0 {
		return nil, true
	}
	created, err := s.sessions.CreateBatch(ctx, withServiceType(sessions))
	if err != nil {
		s.logger.Error("failed to persist scheduled sessions",
			zap.String("student_id", student.ID), zap.Error(err))
		result.TotalFailed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to save scheduled sessions", student.FullName))
		return nil, false
	}
	return created, true
}

func (s *BatchSchedulerService) persistManual(ctx context.Context, student models.Student, sessions []models.ScheduleSession, result *dto.ManualPlacementResult) ([]models.ScheduleSession, bool) {
	if len(sessions) == 0 {
		return nil, true
	}
	created, err := s.sessions.CreateBatch(ctx, withServiceType(sessions))
	if err != nil {
		s.logger.Error("failed to persist manually placed sessions",
			zap.String("student_id", student.ID), zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to save manually placed sessions", student.FullName))
		return nil, false
	}
	return created, true
}

func withServiceType(sessions []models.ScheduleSession) []models.ScheduleSession {
	for i := range sessions {
		if sessions[i].ServiceType == "" {
			sessions[i].ServiceType = defaultServiceType
		}
	}
	return sessions
}

// groupBySchool partitions students by school site, keeping first-seen
// school order and caller order within each group.
func groupBySchool(students []models.Student) []schoolGroup {
	index := make(map[string]int)
	var groups []schoolGroup
	for _, student := range students {
		pos, ok := index[student.SchoolSite]
		if !ok {
			pos = len(groups)
			index[student.SchoolSite] = pos
			groups = append(groups, schoolGroup{school: student.SchoolSite, district: student.SchoolDistrict})
		}
		groups[pos].students = append(groups[pos].students, student)
	}
	return groups
}

func joinReasons(reasons []string) string {
	joined := ""
	for i, reason := range reasons {
		if i > 0 {
			joined += "; "
		}
		joined += reason
	}
	return joined
}
