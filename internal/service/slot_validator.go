package service

import (
	"fmt"
	"sort"

	"github.com/slotwise/caseload-api/internal/models"
	"github.com/slotwise/caseload-api/pkg/config"
)

// SchedulingRules captures the hard constraints applied to every candidate
// slot. Values come from config; zero values fall back to the defaults the
// school day imposes.
type SchedulingRules struct {
	DayStartMinutes       int
	DayEndMinutes         int
	SlotGranularityMins   int
	MaxDailyMinutes       int
	MaxConsecutiveMinutes int
	SlotCapacity          int
	RejectionSampleSize   int
}

// DefaultSchedulingRules returns the standard school-day rule set:
// 08:00-15:00 grid at 30-minute steps, 120 service minutes per day, 60
// consecutive minutes, 4 concurrent students per slot.
func DefaultSchedulingRules() SchedulingRules {
	return SchedulingRules{
		DayStartMinutes:       8 * 60,
		DayEndMinutes:         15 * 60,
		SlotGranularityMins:   30,
		MaxDailyMinutes:       120,
		MaxConsecutiveMinutes: 60,
		SlotCapacity:          4,
		RejectionSampleSize:   5,
	}
}

// RulesFromConfig builds SchedulingRules from the scheduler config section,
// falling back to defaults for unset or malformed values.
func RulesFromConfig(cfg config.SchedulerConfig) (SchedulingRules, error) {
	rules := DefaultSchedulingRules()
	if cfg.DayStart != "" {
		start, err := timeToMinutes(cfg.DayStart)
		if err != nil {
			return rules, err
		}
		rules.DayStartMinutes = start
	}
	if cfg.DayEnd != "" {
		end, err := timeToMinutes(cfg.DayEnd)
		if err != nil {
			return rules, err
		}
		rules.DayEndMinutes = end
	}
	if cfg.SlotGranularityMins > 0 {
		rules.SlotGranularityMins = cfg.SlotGranularityMins
	}
	if cfg.MaxDailyMinutes > 0 {
		rules.MaxDailyMinutes = cfg.MaxDailyMinutes
	}
	if cfg.MaxConsecutiveMinutes > 0 {
		rules.MaxConsecutiveMinutes = cfg.MaxConsecutiveMinutes
	}
	if cfg.SlotCapacity > 0 {
		rules.SlotCapacity = cfg.SlotCapacity
	}
	if cfg.RejectionSampleSize > 0 {
		rules.RejectionSampleSize = cfg.RejectionSampleSize
	}
	return rules, nil
}

// SlotDecision is the validator verdict for one candidate slot. Rejections
// are expected outcomes, never errors.
type SlotDecision struct {
	Valid  bool
	Reason string
}

func accept() SlotDecision {
	return SlotDecision{Valid: true}
}

func reject(reason string) SlotDecision {
	return SlotDecision{Reason: reason}
}

type sessionWindow struct {
	start int
	end   int
}

// validateSlot evaluates all hard constraints for placing [startMin, endMin)
// on the given weekday for one student. pending holds sessions accepted for
// this student earlier in the same run that are not yet in the context.
// Checks run in a fixed order and short-circuit on the first failure so
// rejection messages stay deterministic.
func validateSlot(student models.Student, day, startMin, endMin int, sctx *SchedulingContext, pending []models.ScheduleSession, rules SchedulingRules) SlotDecision {
	// 1. School-hours bound.
	if endMin > rules.DayEndMinutes {
		return reject(fmt.Sprintf("session would end after the school day cutoff (%s)", minutesToTime(rules.DayEndMinutes)))
	}

	// 2. Bell-schedule conflict for the student's grade.
	grade := student.NormalizedGrade()
	for _, bell := range sctx.BellSchedulesOnDay(day) {
		if !bell.AppliesToGrade(grade) {
			continue
		}
		window, ok := parseWindow(bell.StartTime, bell.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			return reject(fmt.Sprintf("conflicts with bell schedule period %q (%s-%s)", bell.PeriodName, minutesToTime(window.start), minutesToTime(window.end)))
		}
	}

	// 3. Special-activity conflict for the student's classroom teacher.
	for _, activity := range sctx.ActivitiesForTeacher(student.TeacherName) {
		if activity.DayOfWeek != day {
			continue
		}
		window, ok := parseWindow(activity.StartTime, activity.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			return reject(fmt.Sprintf("conflicts with special activity %q (%s-%s)", activity.ActivityName, minutesToTime(window.start), minutesToTime(window.end)))
		}
	}

	own := ownDayWindows(student.ID, day, sctx, pending)

	// 4. Same-student double booking.
	for _, window := range own {
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			return reject(fmt.Sprintf("student already has a session %s-%s that day", minutesToTime(window.start), minutesToTime(window.end)))
		}
	}

	// 5. Slot capacity across other students.
	occupants := make(map[string]struct{})
	for _, session := range sctx.SessionsOnDay(day) {
		if session.StudentID == student.ID {
			continue
		}
		window, ok := parseWindow(session.StartTime, session.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			occupants[session.StudentID] = struct{}{}
		}
	}
	if len(occupants) >= rules.SlotCapacity {
		return reject(fmt.Sprintf("slot is at capacity (%d students already scheduled)", len(occupants)))
	}

	// 6. Daily minute cap.
	duration := endMin - startMin
	dailyTotal := duration
	for _, window := range own {
		dailyTotal += window.end - window.start
	}
	if dailyTotal > rules.MaxDailyMinutes {
		return reject(fmt.Sprintf("would exceed the daily limit of %d service minutes", rules.MaxDailyMinutes))
	}

	// 7. Consecutive-minutes cap over back-to-back runs.
	merged := append([]sessionWindow{{start: startMin, end: endMin}}, own...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].start < merged[j].start })
	runStart, runEnd := merged[0].start, merged[0].end
	for _, window := range merged[1:] {
		if window.start == runEnd {
			runEnd = window.end
			continue
		}
		if runEnd-runStart > rules.MaxConsecutiveMinutes {
			return reject(fmt.Sprintf("would create %d consecutive minutes, above the %d minute limit", runEnd-runStart, rules.MaxConsecutiveMinutes))
		}
		runStart, runEnd = window.start, window.end
	}
	if runEnd-runStart > rules.MaxConsecutiveMinutes {
		return reject(fmt.Sprintf("would create %d consecutive minutes, above the %d minute limit", runEnd-runStart, rules.MaxConsecutiveMinutes))
	}

	return accept()
}

// relaxedSlotCheck is the manual-placement variant: only the school-day
// cutoff and same-student double booking reject. The remaining constraint
// types are evaluated anyway and returned as tolerated violations so the
// placement can be flagged with an honest reason.
func relaxedSlotCheck(student models.Student, day, startMin, endMin int, sctx *SchedulingContext, pending []models.ScheduleSession, rules SchedulingRules) (hardReject string, tolerated []string) {
	if endMin > rules.DayEndMinutes {
		return fmt.Sprintf("session would end after the school day cutoff (%s)", minutesToTime(rules.DayEndMinutes)), nil
	}

	own := ownDayWindows(student.ID, day, sctx, pending)
	for _, window := range own {
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			return fmt.Sprintf("student already has a session %s-%s that day", minutesToTime(window.start), minutesToTime(window.end)), nil
		}
	}

	grade := student.NormalizedGrade()
	for _, bell := range sctx.BellSchedulesOnDay(day) {
		if !bell.AppliesToGrade(grade) {
			continue
		}
		window, ok := parseWindow(bell.StartTime, bell.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			tolerated = append(tolerated, fmt.Sprintf("bell schedule period %q", bell.PeriodName))
		}
	}

	for _, activity := range sctx.ActivitiesForTeacher(student.TeacherName) {
		if activity.DayOfWeek != day {
			continue
		}
		window, ok := parseWindow(activity.StartTime, activity.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			tolerated = append(tolerated, fmt.Sprintf("special activity %q", activity.ActivityName))
		}
	}

	occupants := make(map[string]struct{})
	for _, session := range sctx.SessionsOnDay(day) {
		if session.StudentID == student.ID {
			continue
		}
		window, ok := parseWindow(session.StartTime, session.EndTime)
		if !ok {
			continue
		}
		if minutesOverlap(startMin, endMin, window.start, window.end) {
			occupants[session.StudentID] = struct{}{}
		}
	}
	if len(occupants) >= rules.SlotCapacity {
		tolerated = append(tolerated, fmt.Sprintf("slot capacity (%d students)", len(occupants)))
	}

	duration := endMin - startMin
	dailyTotal := duration
	for _, window := range own {
		dailyTotal += window.end - window.start
	}
	if dailyTotal > rules.MaxDailyMinutes {
		tolerated = append(tolerated, fmt.Sprintf("daily limit of %d minutes", rules.MaxDailyMinutes))
	}

	merged := append([]sessionWindow{{start: startMin, end: endMin}}, own...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].start < merged[j].start })
	runStart, runEnd := merged[0].start, merged[0].end
	longest := runEnd - runStart
	for _, window := range merged[1:] {
		if window.start == runEnd {
			runEnd = window.end
		} else {
			runStart, runEnd = window.start, window.end
		}
		if runEnd-runStart > longest {
			longest = runEnd - runStart
		}
	}
	if longest > rules.MaxConsecutiveMinutes {
		tolerated = append(tolerated, fmt.Sprintf("consecutive limit of %d minutes", rules.MaxConsecutiveMinutes))
	}

	return "", tolerated
}

// ownDayWindows collects the student's known sessions for one day, context
// and same-run pending placements combined.
func ownDayWindows(studentID string, day int, sctx *SchedulingContext, pending []models.ScheduleSession) []sessionWindow {
	var windows []sessionWindow
	for _, session := range sctx.SessionsForStudentOnDay(studentID, day) {
		if window, ok := parseWindow(session.StartTime, session.EndTime); ok {
			windows = append(windows, window)
		}
	}
	for _, session := range pending {
		if session.DayOfWeek != day {
			continue
		}
		if window, ok := parseWindow(session.StartTime, session.EndTime); ok {
			windows = append(windows, window)
		}
	}
	return windows
}

func parseWindow(start, end string) (sessionWindow, bool) {
	startMin, err := timeToMinutes(start)
	if err != nil {
		return sessionWindow{}, false
	}
	endMin, err := timeToMinutes(end)
	if err != nil {
		return sessionWindow{}, false
	}
	return sessionWindow{start: startMin, end: endMin}, true
}
