package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

// contextLoader supplies the three record sets a school context is built
// from. Implemented by the repository layer.
type contextLoader interface {
	BellSchedulesBySchool(ctx context.Context, schoolID string) ([]models.BellSchedule, error)
	SpecialActivitiesBySchool(ctx context.Context, schoolID string) ([]models.SpecialActivity, error)
	SessionsByProviderAndSchool(ctx context.Context, providerID, schoolSite string) ([]models.ScheduleSession, error)
}

// SchedulingContext is a per-batch snapshot of one school's bell schedules,
// special activities and existing sessions. It is owned by the batch
// scheduler for the duration of a run and must be refreshed before reuse
// across schools or after any session write it did not perform itself.
type SchedulingContext struct {
	loader contextLoader
	logger *zap.Logger

	providerID     string
	schoolSite     string
	schoolDistrict string

	initialized bool
	stale       bool
	loadedAt    time.Time

	bells               []models.BellSchedule
	bellsByDay          map[int][]models.BellSchedule
	activitiesByTeacher map[string][]models.SpecialActivity
	sessions            []models.ScheduleSession
	sessionsByStudent   map[string][]models.ScheduleSession
}

// NewSchedulingContext builds an empty context; call Initialize before use.
func NewSchedulingContext(loader contextLoader, logger *zap.Logger) *SchedulingContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingContext{loader: loader, logger: logger}
}

// Initialize loads all three record sets for the school and clears staleness.
func (c *SchedulingContext) Initialize(ctx context.Context, providerID, schoolSite, schoolDistrict string) error {
	c.providerID = providerID
	c.schoolSite = schoolSite
	c.schoolDistrict = schoolDistrict
	return c.load(ctx)
}

// Refresh reloads the context in place for the current school.
func (c *SchedulingContext) Refresh(ctx context.Context) error {
	if !c.initialized {
		return appErrors.Clone(appErrors.ErrContextLoad, "scheduling context not initialized")
	}
	return c.load(ctx)
}

func (c *SchedulingContext) load(ctx context.Context) error {
	bells, err := c.loader.BellSchedulesBySchool(ctx, c.schoolSite)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrContextLoad.Code, appErrors.ErrContextLoad.Status, "failed to load bell schedules")
	}
	activities, err := c.loader.SpecialActivitiesBySchool(ctx, c.schoolSite)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrContextLoad.Code, appErrors.ErrContextLoad.Status, "failed to load special activities")
	}
	sessions, err := c.loader.SessionsByProviderAndSchool(ctx, c.providerID, c.schoolSite)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrContextLoad.Code, appErrors.ErrContextLoad.Status, "failed to load existing sessions")
	}

	c.bells = bells
	c.bellsByDay = make(map[int][]models.BellSchedule, len(bells))
	for _, bell := range bells {
		c.bellsByDay[bell.DayOfWeek] = append(c.bellsByDay[bell.DayOfWeek], bell)
	}

	c.activitiesByTeacher = make(map[string][]models.SpecialActivity, len(activities))
	for _, activity := range activities {
		key := teacherKey(activity.TeacherName)
		c.activitiesByTeacher[key] = append(c.activitiesByTeacher[key], activity)
	}

	c.sessions = nil
	c.sessionsByStudent = make(map[string][]models.ScheduleSession)
	c.registerLocked(sessions)

	c.initialized = true
	c.stale = false
	c.loadedAt = time.Now().UTC()
	c.logger.Debug("scheduling context loaded",
		zap.String("school", c.schoolSite),
		zap.Int("bell_schedules", len(bells)),
		zap.Int("special_activities", len(activities)),
		zap.Int("sessions", len(sessions)))
	return nil
}

// IsInitialized reports whether Initialize completed successfully.
func (c *SchedulingContext) IsInitialized() bool { return c.initialized }

// IsStale reports whether a write the context did not perform has occurred.
func (c *SchedulingContext) IsStale() bool { return c.stale }

// MarkStale flags the context after an external session-mutating operation.
func (c *SchedulingContext) MarkStale() { c.stale = true }

// SchoolSite returns the school this context was loaded for.
func (c *SchedulingContext) SchoolSite() string { return c.schoolSite }

// LoadedAt returns when the context was last (re)loaded.
func (c *SchedulingContext) LoadedAt() time.Time { return c.loadedAt }

// RegisterSessions records batch-accepted sessions so later students in the
// same run see them. This is the only sanctioned mutation path.
func (c *SchedulingContext) RegisterSessions(sessions ...models.ScheduleSession) {
	c.registerLocked(sessions)
}

func (c *SchedulingContext) registerLocked(sessions []models.ScheduleSession) {
	for _, session := range sessions {
		c.sessions = append(c.sessions, session)
		c.sessionsByStudent[session.StudentID] = append(c.sessionsByStudent[session.StudentID], session)
	}
}

// Sessions returns every known session, persisted and batch-registered.
func (c *SchedulingContext) Sessions() []models.ScheduleSession { return c.sessions }

// SessionsForStudent returns all known sessions for one student.
func (c *SchedulingContext) SessionsForStudent(studentID string) []models.ScheduleSession {
	return c.sessionsByStudent[studentID]
}

// SessionsForStudentOnDay filters a student's sessions to one weekday.
func (c *SchedulingContext) SessionsForStudentOnDay(studentID string, day int) []models.ScheduleSession {
	var result []models.ScheduleSession
	for _, session := range c.sessionsByStudent[studentID] {
		if session.DayOfWeek == day {
			result = append(result, session)
		}
	}
	return result
}

// SessionsOnDay returns every known session on one weekday.
func (c *SchedulingContext) SessionsOnDay(day int) []models.ScheduleSession {
	var result []models.ScheduleSession
	for _, session := range c.sessions {
		if session.DayOfWeek == day {
			result = append(result, session)
		}
	}
	return result
}

// WeeklySessionCount returns how many sessions a student already has.
func (c *SchedulingContext) WeeklySessionCount(studentID string) int {
	return len(c.sessionsByStudent[studentID])
}

// DaySessionCount returns how many sessions a student has on one weekday.
func (c *SchedulingContext) DaySessionCount(studentID string, day int) int {
	count := 0
	for _, session := range c.sessionsByStudent[studentID] {
		if session.DayOfWeek == day {
			count++
		}
	}
	return count
}

// BellSchedulesOnDay returns the bell schedules for one weekday.
func (c *SchedulingContext) BellSchedulesOnDay(day int) []models.BellSchedule {
	return c.bellsByDay[day]
}

// ActivitiesForTeacher returns a classroom teacher's special activities.
func (c *SchedulingContext) ActivitiesForTeacher(teacherName string) []models.SpecialActivity {
	return c.activitiesByTeacher[teacherKey(teacherName)]
}

func teacherKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
