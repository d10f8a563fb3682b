package models

import "time"

// SessionStatus captures the review state of a scheduled session.
type SessionStatus string

const (
	SessionStatusActive         SessionStatus = "active"
	SessionStatusNeedsAttention SessionStatus = "needs_attention"
)

// ScheduleSession is one recurring weekly service block on a provider's
// calendar. Conflict reconciliation only flags sessions; it never deletes
// them, so a conflicted session stays visible until a human resolves it.
type ScheduleSession struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	ProviderID     string        `db:"provider_id" json:"provider_id"`
	DayOfWeek      int           `db:"day_of_week" json:"day_of_week"`
	StartTime      string        `db:"start_time" json:"start_time"`
	EndTime        string        `db:"end_time" json:"end_time"`
	ServiceType    string        `db:"service_type" json:"service_type"`
	Status         SessionStatus `db:"status" json:"status"`
	HasConflict    bool          `db:"has_conflict" json:"has_conflict"`
	ConflictReason *string       `db:"conflict_reason" json:"conflict_reason,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	ProviderID  string
	StudentID   string
	SchoolSite  string
	DayOfWeek   int
	Status      SessionStatus
	HasConflict *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// SessionConflictMark records the outcome of flagging one session during a
// reconciliation scan.
type SessionConflictMark struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}
