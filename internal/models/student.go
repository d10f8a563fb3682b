package models

import (
	"strings"
	"time"
)

// Student represents a learner on a provider's caseload.
type Student struct {
	ID                string    `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	GradeLevel        string    `db:"grade_level" json:"grade_level"`
	SessionsPerWeek   int       `db:"sessions_per_week" json:"sessions_per_week"`
	MinutesPerSession int       `db:"minutes_per_session" json:"minutes_per_session"`
	TeacherName       string    `db:"teacher_name" json:"teacher_name"`
	SchoolSite        string    `db:"school_site" json:"school_site"`
	SchoolDistrict    string    `db:"school_district" json:"school_district"`
	ProviderID        string    `db:"provider_id" json:"provider_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SchedulingReady reports whether the weekly service mandate is set.
func (s Student) SchedulingReady() bool {
	return s.SessionsPerWeek > 0 && s.MinutesPerSession > 0
}

// NormalizedGrade returns the grade code trimmed for bell-schedule matching.
func (s Student) NormalizedGrade() string {
	return strings.TrimSpace(s.GradeLevel)
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	SchoolSite string
	GradeLevel string
	ProviderID string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
