package energy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEnergyInternal = errors.New("internal error")
	// ErrEnergyOutOfRange is returned for observations outside the 1-10 scale.
	ErrEnergyOutOfRange = errors.New("energy level out of range")
)

// Pattern is one (user, weekday, time-slot) energy bucket. The mean is folded
// incrementally; a plain overwrite would discard the sample history.
type Pattern struct {
	PatternID          uint      `gorm:"primaryKey;column:pattern_id;autoIncrement"`
	UserID             uint      `gorm:"column:user_id;not null;uniqueIndex:idx_energy_bucket"`
	TimeSlot           string    `gorm:"type:varchar(5);not null;column:time_slot;uniqueIndex:idx_energy_bucket"`
	DayOfWeek          int       `gorm:"column:day_of_week;not null;uniqueIndex:idx_energy_bucket"`
	AverageEnergyLevel float64   `gorm:"column:average_energy_level;not null"`
	SampleCount        int       `gorm:"default:1;not null;column:sample_count"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (Pattern) TableName() string {
	return "energy_patterns"
}

// SlotFor buckets a timestamp into its HH:00 slot key.
func SlotFor(t time.Time) string {
	return fmt.Sprintf("%02d:00", t.Hour())
}

// MinutesOfDay converts an HH:MM slot key to minutes since midnight.
// Malformed slots yield -1.
func MinutesOfDay(slot string) int {
	var h, m int
	if _, err := fmt.Sscanf(slot, "%d:%d", &h, &m); err != nil {
		return -1
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

type Repo interface {
	// RecordObservation folds one observed level into the bucket atomically.
	RecordObservation(userID uint, timeSlot string, dayOfWeek int, level float64) error
	GetPatternsForDay(userID uint, dayOfWeek int) ([]*Pattern, error)
	GetPatterns(userID uint) ([]*Pattern, error)
}

type UseCase interface {
	RecordObservation(userID uint, at time.Time, level float64) error
	GetPatternsForDay(userID uint, dayOfWeek int) ([]*Pattern, error)
	// PredictLevel estimates the user's energy at a timestamp from matching
	// buckets; 5 (mid-scale) when there is no data.
	PredictLevel(userID uint, at time.Time) (float64, error)
}
