package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

const snapshotKeyPrefix = "snapshot:provider:"

// SnapshotRepository stores schedule snapshots as opaque JSON blobs in
// Redis, one key per provider.
type SnapshotRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSnapshotRepository constructs a snapshot repository.
func NewSnapshotRepository(client *redis.Client, logger *zap.Logger) *SnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRepository{client: client, logger: logger}
}

func snapshotKey(providerID string) string {
	return snapshotKeyPrefix + providerID
}

// Get retrieves the provider's stored snapshot.
func (r *SnapshotRepository) Get(ctx context.Context, providerID string) (*models.ScheduleSnapshot, error) {
	if r.client == nil {
		return nil, appErrors.ErrSnapshotNotFound
	}

	raw, err := r.client.Get(ctx, snapshotKey(providerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get snapshot for %s: %w", providerID, err)
	}

	var snapshot models.ScheduleSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot for %s: %w", providerID, err)
	}
	return &snapshot, nil
}

// Set stores the snapshot, overwriting any previous one for the provider.
// Snapshots have no TTL; they live until restored or replaced.
func (r *SnapshotRepository) Set(ctx context.Context, snapshot models.ScheduleSnapshot) error {
	if r.client == nil {
		return fmt.Errorf("snapshot store unavailable")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", snapshot.ProviderID, err)
	}

	if err := r.client.Set(ctx, snapshotKey(snapshot.ProviderID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set snapshot for %s: %w", snapshot.ProviderID, err)
	}
	return nil
}

// Delete removes the provider's stored snapshot.
func (r *SnapshotRepository) Delete(ctx context.Context, providerID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, snapshotKey(providerID)).Err(); err != nil {
		return fmt.Errorf("redis delete snapshot for %s: %w", providerID, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
