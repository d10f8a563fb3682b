package service

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

const minutesPerDay = 24 * 60

// timeToMinutes converts a wall-clock "HH:MM" or "HH:MM:SS" string into
// minutes since midnight.
func timeToMinutes(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("malformed time %q", raw))
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("malformed time %q", raw))
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("malformed time %q", raw))
	}
	return hours*60 + mins, nil
}

// minutesToTime renders minutes since midnight as "HH:MM".
func minutesToTime(total int) string {
	total = ((total % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// addMinutes shifts a wall-clock time by delta minutes, wrapping within a
// single day. Callers keep delta small; there is no day-rollover handling.
func addMinutes(raw string, delta int) (string, error) {
	base, err := timeToMinutes(raw)
	if err != nil {
		return "", err
	}
	return minutesToTime(base + delta), nil
}

// minutesOverlap applies half-open interval semantics: [startA, endA) and
// [startB, endB) overlap unless one ends before the other begins. Touching
// edges do not overlap.
func minutesOverlap(startA, endA, startB, endB int) bool {
	return !(endA <= startB || startA >= endB)
}

// timesOverlap is minutesOverlap over wall-clock strings. Malformed inputs
// are treated as non-overlapping.
func timesOverlap(startA, endA, startB, endB string) bool {
	sa, err := timeToMinutes(startA)
	if err != nil {
		return false
	}
	ea, err := timeToMinutes(endA)
	if err != nil {
		return false
	}
	sb, err := timeToMinutes(startB)
	if err != nil {
		return false
	}
	eb, err := timeToMinutes(endB)
	if err != nil {
		return false
	}
	return minutesOverlap(sa, ea, sb, eb)
}

// validWindow reports whether start and end parse and form a non-empty
// half-open interval.
func validWindow(start, end string) bool {
	s, err := timeToMinutes(start)
	if err != nil {
		return false
	}
	e, err := timeToMinutes(end)
	if err != nil {
		return false
	}
	return s < e
}

// daySlot is one candidate placement start on the weekly grid.
type daySlot struct {
	Day   int
	Start int
}

// slotIterator walks candidate (day, start) pairs lazily: day-major in the
// supplied order, start times ascending by the configured granularity. The
// sequence is deterministic, finite and restartable via Reset.
type slotIterator struct {
	days        []int
	windowStart int
	windowEnd   int
	step        int

	dayIdx  int
	current int
}

func newSlotIterator(days []int, windowStart, windowEnd, step int) *slotIterator {
	if step <= 0 {
		step = 30
	}
	it := &slotIterator{
		days:        days,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		step:        step,
	}
	it.Reset()
	return it
}

// Next yields the next candidate, or false when the grid is exhausted.
func (it *slotIterator) Next() (daySlot, bool) {
	for it.dayIdx < len(it.days) {
		if it.current < it.windowEnd {
			slot := daySlot{Day: it.days[it.dayIdx], Start: it.current}
			it.current += it.step
			return slot, true
		}
		it.dayIdx++
		it.current = it.windowStart
	}
	return daySlot{}, false
}

// Reset rewinds the iterator to the first candidate.
func (it *slotIterator) Reset() {
	it.dayIdx = 0
	it.current = it.windowStart
}
