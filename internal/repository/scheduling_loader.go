package repository

import (
	"context"

	"github.com/slotwise/caseload-api/internal/models"
)

// SchedulingLoader bundles the three reads a school scheduling context is
// built from behind one dependency.
type SchedulingLoader struct {
	bells      *BellScheduleRepository
	activities *SpecialActivityRepository
	sessions   *SessionRepository
}

// NewSchedulingLoader creates a loader over the given repositories.
func NewSchedulingLoader(bells *BellScheduleRepository, activities *SpecialActivityRepository, sessions *SessionRepository) *SchedulingLoader {
	return &SchedulingLoader{bells: bells, activities: activities, sessions: sessions}
}

// BellSchedulesBySchool returns a school's bell schedule periods.
func (l *SchedulingLoader) BellSchedulesBySchool(ctx context.Context, schoolID string) ([]models.BellSchedule, error) {
	return l.bells.ListBySchool(ctx, schoolID)
}

// SpecialActivitiesBySchool returns a school's special activities.
func (l *SchedulingLoader) SpecialActivitiesBySchool(ctx context.Context, schoolID string) ([]models.SpecialActivity, error) {
	return l.activities.ListBySchool(ctx, schoolID)
}

// SessionsByProviderAndSchool returns a provider's sessions at one school.
func (l *SchedulingLoader) SessionsByProviderAndSchool(ctx context.Context, providerID, schoolSite string) ([]models.ScheduleSession, error) {
	return l.sessions.ListByProviderAndSchool(ctx, providerID, schoolSite)
}
