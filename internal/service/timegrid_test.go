package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/slotwise/caseload-api/pkg/errors"
)

func TestTimeToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"08:00", 480},
		{"08:30", 510},
		{"15:00", 900},
		{"09:15:00", 555},
		{"00:00", 0},
		{"23:59", 1439},
		{" 08:00 ", 480},
	}
	for _, tc := range cases {
		got, err := timeToMinutes(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestTimeToMinutesMalformed(t *testing.T) {
	for _, raw := range []string{"", "8", "25:00", "08:60", "ab:cd", "08-30"} {
		_, err := timeToMinutes(raw)
		require.Error(t, err, raw)
		assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code, raw)
	}
}

func TestMinutesToTime(t *testing.T) {
	assert.Equal(t, "08:00", minutesToTime(480))
	assert.Equal(t, "15:00", minutesToTime(900))
	assert.Equal(t, "00:05", minutesToTime(5))
}

func TestAddMinutes(t *testing.T) {
	got, err := addMinutes("08:00", 30)
	require.NoError(t, err)
	assert.Equal(t, "08:30", got)

	got, err = addMinutes("08:45", 30)
	require.NoError(t, err)
	assert.Equal(t, "09:15", got)

	_, err = addMinutes("nope", 30)
	assert.Error(t, err)
}

func TestMinutesOverlapHalfOpen(t *testing.T) {
	// Shared edge is not an overlap.
	assert.False(t, minutesOverlap(480, 510, 510, 540))
	assert.False(t, minutesOverlap(510, 540, 480, 510))

	assert.True(t, minutesOverlap(480, 540, 510, 570))
	assert.True(t, minutesOverlap(510, 570, 480, 540))
	// Containment.
	assert.True(t, minutesOverlap(480, 600, 510, 540))
	assert.True(t, minutesOverlap(510, 540, 480, 600))
	// Identical windows.
	assert.True(t, minutesOverlap(480, 510, 480, 510))
	// Disjoint.
	assert.False(t, minutesOverlap(480, 510, 600, 630))
}

func TestTimesOverlapMalformedIsFalse(t *testing.T) {
	assert.False(t, timesOverlap("bogus", "09:00", "08:00", "10:00"))
	assert.False(t, timesOverlap("08:00", "09:00", "08:30", "bad"))
	assert.True(t, timesOverlap("08:00", "09:00", "08:30", "09:30"))
}

func TestValidWindow(t *testing.T) {
	assert.True(t, validWindow("08:00", "08:30"))
	assert.False(t, validWindow("08:30", "08:30"))
	assert.False(t, validWindow("09:00", "08:30"))
	assert.False(t, validWindow("junk", "08:30"))
}

func TestSlotIteratorWalksDayMajor(t *testing.T) {
	it := newSlotIterator([]int{2, 1}, 480, 570, 30)

	var got []daySlot
	for slot, ok := it.Next(); ok; slot, ok = it.Next() {
		got = append(got, slot)
	}

	want := []daySlot{
		{Day: 2, Start: 480}, {Day: 2, Start: 510}, {Day: 2, Start: 540},
		{Day: 1, Start: 480}, {Day: 1, Start: 510}, {Day: 1, Start: 540},
	}
	assert.Equal(t, want, got)
}

func TestSlotIteratorReset(t *testing.T) {
	it := newSlotIterator([]int{1}, 480, 540, 30)

	first, ok := it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	require.False(t, ok)

	it.Reset()
	again, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)
}
