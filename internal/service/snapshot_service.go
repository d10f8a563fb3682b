package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

type snapshotBlobStore interface {
	Get(ctx context.Context, providerID string) (*models.ScheduleSnapshot, error)
	Set(ctx context.Context, snapshot models.ScheduleSnapshot) error
	Delete(ctx context.Context, providerID string) error
}

type snapshotSessionStore interface {
	ListByProvider(ctx context.Context, providerID string) ([]models.ScheduleSession, error)
	ReplaceForProvider(ctx context.Context, providerID string, sessions []models.ScheduleSession) error
}

// SnapshotService captures a provider's full session set before destructive
// batch operations and can restore it verbatim. One snapshot per provider
// is retained; there is no multi-level undo.
type SnapshotService struct {
	blobs    snapshotBlobStore
	sessions snapshotSessionStore
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewSnapshotService wires snapshot dependencies.
func NewSnapshotService(blobs snapshotBlobStore, sessions snapshotSessionStore, logger *zap.Logger, metrics *MetricsService) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{blobs: blobs, sessions: sessions, logger: logger, metrics: metrics}
}

// SaveSnapshot stores the provider's current sessions, overwriting any
// prior snapshot.
func (s *SnapshotService) SaveSnapshot(ctx context.Context, providerID string) (*dto.SnapshotInfo, error) {
	sessions, err := s.sessions.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read sessions for snapshot")
	}

	snapshot := models.ScheduleSnapshot{
		ProviderID: providerID,
		TakenAt:    time.Now().UTC(),
		Sessions:   sessions,
	}
	if err := s.blobs.Set(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store snapshot")
	}

	s.logger.Info("snapshot saved",
		zap.String("provider_id", providerID),
		zap.Int("sessions", len(sessions)))
	if s.metrics != nil {
		s.metrics.IncSnapshotSaves()
	}
	return &dto.SnapshotInfo{
		ProviderID:   providerID,
		TakenAt:      snapshot.TakenAt.Format(time.RFC3339),
		SessionCount: len(sessions),
	}, nil
}

// GetSnapshot returns metadata about the stored snapshot, if any.
func (s *SnapshotService) GetSnapshot(ctx context.Context, providerID string) (*dto.SnapshotInfo, error) {
	snapshot, err := s.blobs.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return &dto.SnapshotInfo{
		ProviderID:   providerID,
		TakenAt:      snapshot.TakenAt.Format(time.RFC3339),
		SessionCount: len(snapshot.Sessions),
	}, nil
}

// RestoreSnapshot replaces the provider's sessions with the snapshot rows
// (server-generated fields stripped) inside one transaction, then clears
// the snapshot.
func (s *SnapshotService) RestoreSnapshot(ctx context.Context, providerID string) (*dto.SnapshotInfo, error) {
	snapshot, err := s.blobs.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	restored := make([]models.ScheduleSession, 0, len(snapshot.Sessions))
	for _, session := range snapshot.Sessions {
		session.ID = ""
		session.CreatedAt = time.Time{}
		session.UpdatedAt = time.Time{}
		restored = append(restored, session)
	}

	if err := s.sessions.ReplaceForProvider(ctx, providerID, restored); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore sessions from snapshot")
	}

	if err := s.blobs.Delete(ctx, providerID); err != nil {
		s.logger.Warn("failed to clear snapshot after restore",
			zap.String("provider_id", providerID), zap.Error(err))
	}

	s.logger.Info("snapshot restored",
		zap.String("provider_id", providerID),
		zap.Int("sessions", len(restored)))
	if s.metrics != nil {
		s.metrics.IncSnapshotRestores()
	}
	return &dto.SnapshotInfo{
		ProviderID:   providerID,
		TakenAt:      snapshot.TakenAt.Format(time.RFC3339),
		SessionCount: len(restored),
	}, nil
}
