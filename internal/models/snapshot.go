package models

import "time"

// ScheduleSnapshot captures a provider's full session set before a
// destructive batch operation. Only the most recent snapshot per provider
// is retained; saving again overwrites it.
type ScheduleSnapshot struct {
	ProviderID string            `json:"provider_id"`
	TakenAt    time.Time         `json:"taken_at"`
	Sessions   []ScheduleSession `json:"sessions"`
}
