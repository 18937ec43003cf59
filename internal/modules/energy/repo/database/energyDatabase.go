package database

import (
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focusflow/internal/modules/energy"
)

type EnergyDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewEnergyDatabase(db *gorm.DB, log *slog.Logger) *EnergyDatabase {
	return &EnergyDatabase{
		db:  db,
		log: log,
	}
}

// RecordObservation upserts the bucket in a single statement. The incremental
// mean is computed server-side so concurrent sessions for the same user never
// lose updates.
func (r *EnergyDatabase) RecordObservation(userID uint, timeSlot string, dayOfWeek int, level float64) error {
	op := "EnergyDatabase.RecordObservation"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)),
		slog.String("timeSlot", timeSlot), slog.Int("dayOfWeek", dayOfWeek))

	pattern := energy.Pattern{
		UserID:             userID,
		TimeSlot:           timeSlot,
		DayOfWeek:          dayOfWeek,
		AverageEnergyLevel: level,
		SampleCount:        1,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "time_slot"}, {Name: "day_of_week"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"average_energy_level": gorm.Expr(
				"(energy_patterns.average_energy_level * energy_patterns.sample_count + ?) / (energy_patterns.sample_count + 1)",
				level,
			),
			"sample_count": gorm.Expr("energy_patterns.sample_count + 1"),
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&pattern).Error
	if err != nil {
		log.Error("failed to upsert energy pattern", "error", err)
		return energy.ErrEnergyInternal
	}

	log.Debug("energy observation recorded")
	return nil
}

func (r *EnergyDatabase) GetPatternsForDay(userID uint, dayOfWeek int) ([]*energy.Pattern, error) {
	op := "EnergyDatabase.GetPatternsForDay"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)), slog.Int("dayOfWeek", dayOfWeek))

	var patterns []*energy.Pattern
	if err := r.db.
		Where("user_id = ? AND day_of_week = ?", userID, dayOfWeek).
		Order("time_slot ASC").
		Find(&patterns).Error; err != nil {
		log.Error("failed to get energy patterns for day", "error", err)
		return nil, energy.ErrEnergyInternal
	}
	return patterns, nil
}

func (r *EnergyDatabase) GetPatterns(userID uint) ([]*energy.Pattern, error) {
	op := "EnergyDatabase.GetPatterns"
	log := r.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	var patterns []*energy.Pattern
	if err := r.db.
		Where("user_id = ?", userID).
		Order("day_of_week ASC, time_slot ASC").
		Find(&patterns).Error; err != nil {
		log.Error("failed to get energy patterns", "error", err)
		return nil, energy.ErrEnergyInternal
	}
	return patterns, nil
}
