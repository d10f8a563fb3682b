package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	"github.com/slotwise/caseload-api/pkg/jobs"
)

const (
	jobTypeBellScheduleScan    = "bell_schedule_scan"
	jobTypeSpecialActivityScan = "special_activity_scan"
)

type bellScanPayload struct {
	ProviderID string
	Schedule   models.BellSchedule
}

type activityScanPayload struct {
	ProviderID string
	Activity   models.SpecialActivity
}

// ConflictScanQueue runs conflict reconciliation scans in the background
// after availability records change, so mutations return immediately.
type ConflictScanQueue struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewConflictScanQueue builds the scan worker pool over the conflict
// service.
func NewConflictScanQueue(conflicts *ConflictService, cfg jobs.QueueConfig, logger *zap.Logger) *ConflictScanQueue {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobTypeBellScheduleScan:
			payload, ok := job.Payload.(bellScanPayload)
			if !ok {
				return fmt.Errorf("unexpected payload for %s job", job.Type)
			}
			result, err := conflicts.ResolveBellScheduleConflicts(ctx, payload.ProviderID, payload.Schedule)
			if err != nil {
				return err
			}
			logger.Info("bell schedule scan finished",
				zap.String("bell_schedule_id", payload.Schedule.ID),
				zap.Int("marked", result.Marked),
				zap.Int("failed", result.Failed),
				zap.Bool("skipped", result.Skipped))
			return nil
		case jobTypeSpecialActivityScan:
			payload, ok := job.Payload.(activityScanPayload)
			if !ok {
				return fmt.Errorf("unexpected payload for %s job", job.Type)
			}
			result, err := conflicts.ResolveSpecialActivityConflicts(ctx, payload.ProviderID, payload.Activity)
			if err != nil {
				return err
			}
			logger.Info("special activity scan finished",
				zap.String("special_activity_id", payload.Activity.ID),
				zap.Int("marked", result.Marked),
				zap.Int("failed", result.Failed),
				zap.Bool("skipped", result.Skipped))
			return nil
		default:
			return fmt.Errorf("unknown scan job type %q", job.Type)
		}
	}

	cfg.Logger = logger
	return &ConflictScanQueue{
		queue:  jobs.NewQueue("conflict-scans", handler, cfg),
		logger: logger,
	}
}

// Start launches the worker pool.
func (q *ConflictScanQueue) Start(ctx context.Context) {
	q.queue.Start(ctx)
}

// Stop drains and stops the worker pool.
func (q *ConflictScanQueue) Stop() {
	q.queue.Stop()
}

// EnqueueBellScheduleScan schedules a scan of the provider's sessions
// against one bell schedule period.
func (q *ConflictScanQueue) EnqueueBellScheduleScan(providerID string, schedule models.BellSchedule) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeBellScheduleScan,
		Payload: bellScanPayload{ProviderID: providerID, Schedule: schedule},
	})
}

// EnqueueSpecialActivityScan schedules a scan of the provider's sessions
// against one special activity block.
func (q *ConflictScanQueue) EnqueueSpecialActivityScan(providerID string, activity models.SpecialActivity) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeSpecialActivityScan,
		Payload: activityScanPayload{ProviderID: providerID, Activity: activity},
	})
}
