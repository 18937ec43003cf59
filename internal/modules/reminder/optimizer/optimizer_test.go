package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusflow/internal/modules/energy"
	"focusflow/internal/modules/reminder"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestInQuietHours_MidnightWrap(t *testing.T) {
	q := reminder.QuietHours{Start: "22:00", End: "08:00"}

	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"late evening inside window", "2026-03-02T23:30:00Z", true},
		{"just after midnight inside window", "2026-03-03T00:15:00Z", true},
		{"early morning inside window", "2026-03-03T07:59:00Z", true},
		{"window end boundary is inside", "2026-03-03T08:00:00Z", true},
		{"morning after window", "2026-03-03T09:00:00Z", false},
		{"afternoon outside window", "2026-03-03T15:00:00Z", false},
		{"window start boundary is inside", "2026-03-02T22:00:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InQuietHours(mustTime(t, tt.at), q))
		})
	}
}

func TestInQuietHours_SameDayWindow(t *testing.T) {
	q := reminder.QuietHours{Start: "13:00", End: "14:00"}

	assert.True(t, InQuietHours(mustTime(t, "2026-03-03T13:30:00Z"), q))
	assert.False(t, InQuietHours(mustTime(t, "2026-03-03T12:59:00Z"), q))
	assert.False(t, InQuietHours(mustTime(t, "2026-03-03T14:01:00Z"), q))
}

func TestInQuietHours_MalformedWindowNeverMatches(t *testing.T) {
	q := reminder.QuietHours{Start: "late", End: "08:00"}
	assert.False(t, InQuietHours(mustTime(t, "2026-03-03T03:00:00Z"), q))
}

func TestShiftPastQuietHours(t *testing.T) {
	q := reminder.QuietHours{Start: "22:00", End: "08:00"}

	// Before midnight the end lies on the next calendar day.
	shifted := ShiftPastQuietHours(mustTime(t, "2026-03-02T23:30:00Z"), q)
	assert.Equal(t, mustTime(t, "2026-03-03T08:00:00Z"), shifted)

	// After midnight the end is later the same day.
	shifted = ShiftPastQuietHours(mustTime(t, "2026-03-03T06:00:00Z"), q)
	assert.Equal(t, mustTime(t, "2026-03-03T08:00:00Z"), shifted)
}

func TestTargetEnergyLevel(t *testing.T) {
	tests := []struct {
		rt   reminder.ReminderType
		want float64
	}{
		{reminder.TypeTaskStart, 7},
		{reminder.TypeDeadlineWarning, 8},
		{reminder.TypeTransitionWarning, 6},
		{reminder.TypeEnergyCheck, 5},
		{reminder.TypeMedicationReminder, 5},
		{reminder.TypeBreakReminder, 3},
		{reminder.TypeHyperfocusBreak, 2},
		{reminder.ReminderType("something_else"), 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetEnergyLevel(tt.rt), string(tt.rt))
	}
}

func TestOptimize_DisabledPassesThrough(t *testing.T) {
	prefs := reminder.DefaultPreferences(1)
	prefs.EnergyBasedAdjustment = false

	requested := mustTime(t, "2026-03-03T15:00:00Z")
	patterns := []*energy.Pattern{
		{UserID: 1, TimeSlot: "16:00", DayOfWeek: 2, AverageEnergyLevel: 7, SampleCount: 10},
	}

	assert.Equal(t, requested, Optimize(requested, reminder.TypeTaskStart, prefs, patterns))
}

func TestOptimize_NoDataPassesThrough(t *testing.T) {
	prefs := reminder.DefaultPreferences(1)
	requested := mustTime(t, "2026-03-03T15:00:00Z")

	assert.Equal(t, requested, Optimize(requested, reminder.TypeTaskStart, prefs, nil))
}

func TestOptimize_QuietHoursShiftWinsOverEnergy(t *testing.T) {
	prefs := reminder.DefaultPreferences(1)
	requested := mustTime(t, "2026-03-02T23:00:00Z")
	patterns := []*energy.Pattern{
		{UserID: 1, TimeSlot: "23:00", DayOfWeek: 1, AverageEnergyLevel: 7, SampleCount: 10},
	}

	got := Optimize(requested, reminder.TypeTaskStart, prefs, patterns)
	assert.Equal(t, mustTime(t, "2026-03-03T08:00:00Z"), got)
}

func TestOptimize_MovesToNearestMatchingBucket(t *testing.T) {
	prefs := reminder.DefaultPreferences(1)
	// Tuesday 2026-03-03, weekday 2.
	requested := mustTime(t, "2026-03-03T15:00:00Z")

	patterns := []*energy.Pattern{
		// Within tolerance of task_start target 7, 60 minutes away.
		{UserID: 1, TimeSlot: "16:00", DayOfWeek: 2, AverageEnergyLevel: 6.5, SampleCount: 8},
		// Also within tolerance but further away.
		{UserID: 1, TimeSlot: "10:00", DayOfWeek: 2, AverageEnergyLevel: 7.0, SampleCount: 8},
		// Out of tolerance.
		{UserID: 1, TimeSlot: "15:00", DayOfWeek: 2, AverageEnergyLevel: 2.0, SampleCount: 8},
		// Wrong weekday.
		{UserID: 1, TimeSlot: "15:00", DayOfWeek: 3, AverageEnergyLevel: 7.0, SampleCount: 8},
	}

	got := Optimize(requested, reminder.TypeTaskStart, prefs, patterns)
	assert.Equal(t, mustTime(t, "2026-03-03T16:00:00Z"), got)
}

func TestOptimize_AdjustmentCap(t *testing.T) {
	prefs := reminder.DefaultPreferences(1)
	requested := mustTime(t, "2026-03-03T15:00:00Z")

	// 150 minutes away: beyond the 120-minute cap for break reminders but
	// inside the 240-minute cap for deadline warnings.
	patterns := []*energy.Pattern{
		{UserID: 1, TimeSlot: "17:30", DayOfWeek: 2, AverageEnergyLevel: 8, SampleCount: 8},
	}

	got := Optimize(requested, reminder.TypeDeadlineWarning, prefs, patterns)
	assert.Equal(t, mustTime(t, "2026-03-03T17:30:00Z"), got)

	breakPatterns := []*energy.Pattern{
		{UserID: 1, TimeSlot: "17:30", DayOfWeek: 2, AverageEnergyLevel: 3, SampleCount: 8},
	}
	got = Optimize(requested, reminder.TypeBreakReminder, prefs, breakPatterns)
	assert.Equal(t, requested, got)
}
