package models

import (
	"strings"
	"time"
)

// BellSchedule is a recurring grade-scoped class period during which
// students of the listed grades are unavailable for services.
type BellSchedule struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	PeriodName string    `db:"period_name" json:"period_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// GradeList splits the comma-separated grade codes into trimmed entries.
func (b BellSchedule) GradeList() []string {
	parts := strings.Split(b.GradeLevel, ",")
	grades := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			grades = append(grades, trimmed)
		}
	}
	return grades
}

// AppliesToGrade reports whether the period covers the given grade code.
func (b BellSchedule) AppliesToGrade(grade string) bool {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return false
	}
	for _, candidate := range b.GradeList() {
		if strings.EqualFold(candidate, grade) {
			return true
		}
	}
	return false
}
