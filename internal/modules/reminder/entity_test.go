package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseType_SnoozeDuration(t *testing.T) {
	tests := []struct {
		rt       ResponseType
		want     time.Duration
		isSnooze bool
	}{
		{ResponseSnoozed5Min, 5 * time.Minute, true},
		{ResponseSnoozed15Min, 15 * time.Minute, true},
		{ResponseSnoozed30Min, 30 * time.Minute, true},
		{ResponseAcknowledged, 0, false},
		{ResponseDismissed, 0, false},
		{ResponseType("snoozed_min"), 0, false},
		{ResponseType("snoozed_-5min"), 0, false},
		{ResponseType("snoozed_45min"), 45 * time.Minute, true},
	}
	for _, tt := range tests {
		d, ok := tt.rt.SnoozeDuration()
		assert.Equal(t, tt.isSnooze, ok, string(tt.rt))
		assert.Equal(t, tt.want, d, string(tt.rt))
	}
}

func TestResponseType_StatusAfter(t *testing.T) {
	tests := []struct {
		rt   ResponseType
		want Status
	}{
		{ResponseAcknowledged, StatusAcknowledged},
		{ResponseCompletedTask, StatusAcknowledged},
		{ResponseSnoozed5Min, StatusSnoozed},
		{ResponseSnoozed15Min, StatusSnoozed},
		{ResponseSnoozed30Min, StatusSnoozed},
		{ResponseDismissed, StatusDismissed},
		{ResponseNotNow, StatusDismissed},
		{ResponseTooFrequent, StatusDismissed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rt.StatusAfter(), string(tt.rt))
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := []Status{StatusAcknowledged, StatusDismissed, StatusExpired, StatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}

	live := []Status{StatusScheduled, StatusSent, StatusSnoozed}
	for _, s := range live {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("bogus").Rank())
}

func TestReminderTypesEnabled_IsEnabled(t *testing.T) {
	enabled := ReminderTypesEnabled{TaskStart: true, HyperfocusBreak: true}

	assert.True(t, enabled.IsEnabled(TypeTaskStart))
	assert.True(t, enabled.IsEnabled(TypeHyperfocusBreak))
	assert.False(t, enabled.IsEnabled(TypeBreakReminder))
	assert.False(t, enabled.IsEnabled(ReminderType("unknown")))
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences(42)
	require.NotNil(t, prefs)

	assert.Equal(t, uint(42), prefs.UserID)
	assert.Equal(t, FrequencyModerate, prefs.Frequency)
	assert.Equal(t, 10, prefs.MaxDailyReminders)
	assert.Equal(t, QuietHours{Start: "22:00", End: "08:00"}, prefs.QuietHours)
	assert.Equal(t, 3, prefs.Escalation.MaxEscalations)
	assert.True(t, prefs.EnergyBasedAdjustment)
	assert.True(t, prefs.AdaptiveLearning.Enabled)
	assert.NotEmpty(t, prefs.PreferredTimes)

	// Every reminder type starts enabled; nothing is silently off by default.
	for _, rt := range []ReminderType{
		TypeTaskStart, TypeBreakReminder, TypeDeadlineWarning, TypeEnergyCheck,
		TypeHyperfocusBreak, TypeMedicationReminder, TypeTransitionWarning,
	} {
		assert.True(t, prefs.TypesEnabled.IsEnabled(rt), string(rt))
	}
}

func TestToReminderResponseList_Empty(t *testing.T) {
	assert.Empty(t, ToReminderResponseList(nil))
	assert.NotNil(t, ToReminderResponseList(nil))
}
