// Package optimizer adjusts reminder send times toward energy-favorable
// moments. Every function is pure: given the same inputs it returns the same
// output and touches nothing else.
package optimizer

import (
	"time"

	"focusflow/internal/modules/energy"
	"focusflow/internal/modules/reminder"
)

const (
	// maxAdjustmentMinutes caps how far an energy adjustment may move a
	// reminder from the requested time.
	maxAdjustmentMinutes = 120
	// maxDeadlineAdjustmentMinutes is the wider cap for deadline warnings,
	// which may drift further because deadline safety outweighs energy
	// optimality.
	maxDeadlineAdjustmentMinutes = 240

	// energyTolerance is how close a bucket's average must be to the target
	// level to count as a candidate.
	energyTolerance = 2.0
)

// TargetEnergyLevel maps a reminder type to the energy level at which it
// lands best. Unknown types get the mid-scale default.
func TargetEnergyLevel(rt reminder.ReminderType) float64 {
	switch rt {
	case reminder.TypeTaskStart:
		return 7
	case reminder.TypeDeadlineWarning:
		return 8
	case reminder.TypeTransitionWarning:
		return 6
	case reminder.TypeEnergyCheck, reminder.TypeMedicationReminder:
		return 5
	case reminder.TypeBreakReminder:
		return 3
	case reminder.TypeHyperfocusBreak:
		return 2
	default:
		return 5
	}
}

// InQuietHours reports whether t's wall clock falls inside the window.
// A window whose start is after its end spans midnight.
func InQuietHours(t time.Time, q reminder.QuietHours) bool {
	start := energy.MinutesOfDay(q.Start)
	end := energy.MinutesOfDay(q.End)
	if start < 0 || end < 0 {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if start > end {
		return minute >= start || minute <= end
	}
	return minute >= start && minute <= end
}

// ShiftPastQuietHours returns the first instant at or after the quiet-hours
// end, on the same or next calendar day.
func ShiftPastQuietHours(t time.Time, q reminder.QuietHours) time.Time {
	end := energy.MinutesOfDay(q.End)
	if end < 0 {
		return t
	}
	shifted := time.Date(t.Year(), t.Month(), t.Day(), end/60, end%60, 0, 0, t.Location())
	if shifted.Before(t) {
		shifted = shifted.Add(24 * time.Hour)
	}
	return shifted
}

// Optimize returns the adjusted send time for a reminder requested at
// requestedTime. With energy adjustment disabled the input passes through
// untouched; with no usable energy data the input passes through untouched.
func Optimize(requestedTime time.Time, rt reminder.ReminderType, prefs *reminder.Preferences, patterns []*energy.Pattern) time.Time {
	if prefs == nil || !prefs.EnergyBasedAdjustment {
		return requestedTime
	}

	if InQuietHours(requestedTime, prefs.QuietHours) {
		return ShiftPastQuietHours(requestedTime, prefs.QuietHours)
	}

	target := TargetEnergyLevel(rt)
	requestedMinute := requestedTime.Hour()*60 + requestedTime.Minute()
	day := int(requestedTime.Weekday())

	// Nearest bucket on the requested weekday within tolerance of the
	// target. First-encountered order breaks ties, so selection is stable.
	var best *energy.Pattern
	bestDistance := 0
	for _, p := range patterns {
		if p.DayOfWeek != day {
			continue
		}
		diff := p.AverageEnergyLevel - target
		if diff < -energyTolerance || diff > energyTolerance {
			continue
		}
		slotMinute := energy.MinutesOfDay(p.TimeSlot)
		if slotMinute < 0 {
			continue
		}
		distance := slotMinute - requestedMinute
		if distance < 0 {
			distance = -distance
		}
		if best == nil || distance < bestDistance {
			best = p
			bestDistance = distance
		}
	}
	if best == nil {
		return requestedTime
	}

	maxDistance := maxAdjustmentMinutes
	if rt == reminder.TypeDeadlineWarning {
		maxDistance = maxDeadlineAdjustmentMinutes
	}
	if bestDistance > maxDistance {
		return requestedTime
	}

	slotMinute := energy.MinutesOfDay(best.TimeSlot)
	return time.Date(
		requestedTime.Year(), requestedTime.Month(), requestedTime.Day(),
		slotMinute/60, slotMinute%60, 0, 0, requestedTime.Location(),
	)
}
