package models

import (
	"strings"
	"time"
)

// SpecialActivity is a recurring teacher-scoped block (PE, library, field
// trip) during which that teacher's whole class is unavailable.
type SpecialActivity struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	TeacherName  string    `db:"teacher_name" json:"teacher_name"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	ActivityName string    `db:"activity_name" json:"activity_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AppliesToTeacher matches the classroom teacher by case-insensitive name.
func (a SpecialActivity) AppliesToTeacher(teacherName string) bool {
	teacherName = strings.TrimSpace(teacherName)
	return teacherName != "" && strings.EqualFold(strings.TrimSpace(a.TeacherName), teacherName)
}
