package dto

import "github.com/slotwise/caseload-api/internal/models"

// BatchScheduleRequest selects caseload students to auto-schedule.
type BatchScheduleRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=512,dive,required"`
	Reschedule bool     `json:"reschedule"`
}

// UnplacedStudent reports a student whose weekly quota could not be met,
// with a sample of the validator rejections encountered.
type UnplacedStudent struct {
	StudentID  string   `json:"studentId"`
	FullName   string   `json:"fullName"`
	SchoolSite string   `json:"schoolSite"`
	UnmetCount int      `json:"unmetCount"`
	Reasons    []string `json:"reasons,omitempty"`
}

// BatchScheduleResult aggregates per-student outcomes for one batch run.
type BatchScheduleResult struct {
	TotalScheduled   int               `json:"totalScheduled"`
	TotalFailed      int               `json:"totalFailed"`
	Errors           []string          `json:"errors"`
	UnplacedStudents []UnplacedStudent `json:"unplacedStudents"`
	CanManuallyPlace bool              `json:"canManuallyPlace"`
}

// ManualPlacementRequest retries unplaced students with relaxed constraints.
type ManualPlacementRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=512,dive,required"`
}

// ManualPlacementResult lists force-placed sessions and remaining failures.
type ManualPlacementResult struct {
	PlacedSessions []models.ScheduleSession `json:"placedSessions"`
	FailedStudents []UnplacedStudent        `json:"failedStudents"`
	Errors         []string                 `json:"errors"`
}

// ConflictScanResult summarises a reconciliation pass over existing sessions.
type ConflictScanResult struct {
	Marked  int                          `json:"marked"`
	Failed  int                          `json:"failed"`
	Skipped bool                         `json:"skipped"`
	Marks   []models.SessionConflictMark `json:"marks,omitempty"`
}

// CrossProviderConflictQuery checks another provider's calendar for overlap.
type CrossProviderConflictQuery struct {
	StudentID        string `form:"studentId" json:"studentId" validate:"required"`
	DayOfWeek        int    `form:"day" json:"day" validate:"required,min=1,max=5"`
	StartTime        string `form:"start" json:"start" validate:"required"`
	EndTime          string `form:"end" json:"end" validate:"required"`
	ExcludeSessionID string `form:"excludeSessionId" json:"excludeSessionId"`
}

// CrossProviderConflictResult names the colliding provider when found.
type CrossProviderConflictResult struct {
	HasConflict     bool   `json:"hasConflict"`
	ConflictDetails string `json:"conflictDetails,omitempty"`
}

// SnapshotInfo describes the stored undo snapshot for a provider.
type SnapshotInfo struct {
	ProviderID   string `json:"providerId"`
	TakenAt      string `json:"takenAt"`
	SessionCount int    `json:"sessionCount"`
}
