package service

import (
	"sort"

	"github.com/slotwise/caseload-api/internal/models"
)

var weekdays = []int{1, 2, 3, 4, 5}

// studentScheduleOutcome is the result of planning one student's week.
// Sessions are proposals only; the caller persists them and registers them
// into the shared context.
type studentScheduleOutcome struct {
	Sessions []models.ScheduleSession
	Unmet    int
	Reasons  []string
}

// planStudentSessions fills a student's weekly session deficit. Weekdays are
// ranked by ascending existing session count for this student (load
// balancing), then candidate start times walk the grid ascending. The day
// ranking is recomputed after every acceptance so consecutive placements
// spread across the week.
func planStudentSessions(student models.Student, sctx *SchedulingContext, rules SchedulingRules) studentScheduleOutcome {
	outcome := studentScheduleOutcome{}
	deficit := student.SessionsPerWeek - sctx.WeeklySessionCount(student.ID)
	if deficit <= 0 || student.MinutesPerSession <= 0 {
		return outcome
	}

	duration := student.MinutesPerSession
	reasonSeen := make(map[string]struct{})

	for deficit > 0 {
		placed := false
		it := newSlotIterator(rankDays(student.ID, sctx, outcome.Sessions), rules.DayStartMinutes, rules.DayEndMinutes, rules.SlotGranularityMins)
		for slot, ok := it.Next(); ok; slot, ok = it.Next() {
			decision := validateSlot(student, slot.Day, slot.Start, slot.Start+duration, sctx, outcome.Sessions, rules)
			if !decision.Valid {
				if _, dup := reasonSeen[decision.Reason]; !dup && len(outcome.Reasons) < rules.RejectionSampleSize {
					reasonSeen[decision.Reason] = struct{}{}
					outcome.Reasons = append(outcome.Reasons, decision.Reason)
				}
				continue
			}
			outcome.Sessions = append(outcome.Sessions, models.ScheduleSession{
				StudentID:  student.ID,
				ProviderID: student.ProviderID,
				DayOfWeek:  slot.Day,
				StartTime:  minutesToTime(slot.Start),
				EndTime:    minutesToTime(slot.Start + duration),
				Status:     models.SessionStatusActive,
			})
			deficit--
			placed = true
			break
		}
		if !placed {
			break
		}
	}

	outcome.Unmet = deficit
	return outcome
}

// rankDays orders weekdays by ascending session count for the student,
// counting both context sessions and same-run pending placements. Ties keep
// the earlier weekday first so the walk stays reproducible.
func rankDays(studentID string, sctx *SchedulingContext, pending []models.ScheduleSession) []int {
	counts := make(map[int]int, len(weekdays))
	for _, day := range weekdays {
		counts[day] = sctx.DaySessionCount(studentID, day)
	}
	for _, session := range pending {
		counts[session.DayOfWeek]++
	}

	order := make([]int, len(weekdays))
	copy(order, weekdays)
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] < counts[order[j]]
	})
	return order
}
