package usecase

import (
	"log/slog"
	"time"

	"focusflow/internal/modules/energy"
)

type EnergyUseCase struct {
	repo energy.Repo
	log  *slog.Logger
}

func NewEnergyUseCase(repo energy.Repo, log *slog.Logger) energy.UseCase {
	return &EnergyUseCase{
		repo: repo,
		log:  log,
	}
}

func (uc *EnergyUseCase) RecordObservation(userID uint, at time.Time, level float64) error {
	op := "EnergyUseCase.RecordObservation"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	if level < 1 || level > 10 {
		log.Warn("energy observation out of range", slog.Float64("level", level))
		return energy.ErrEnergyOutOfRange
	}

	return uc.repo.RecordObservation(userID, energy.SlotFor(at), int(at.Weekday()), level)
}

func (uc *EnergyUseCase) GetPatternsForDay(userID uint, dayOfWeek int) ([]*energy.Pattern, error) {
	return uc.repo.GetPatternsForDay(userID, dayOfWeek)
}

func (uc *EnergyUseCase) PredictLevel(userID uint, at time.Time) (float64, error) {
	op := "EnergyUseCase.PredictLevel"
	log := uc.log.With(slog.String("op", op), slog.Uint64("userID", uint64(userID)))

	patterns, err := uc.repo.GetPatternsForDay(userID, int(at.Weekday()))
	if err != nil {
		return 0, err
	}

	slot := energy.SlotFor(at)
	var sum float64
	var n int
	for _, p := range patterns {
		if p.TimeSlot == slot {
			sum += p.AverageEnergyLevel
			n++
		}
	}
	if n == 0 {
		// No data for this bucket; mid-scale default.
		log.Debug("no energy data for slot, using default", slog.String("slot", slot))
		return 5, nil
	}
	return sum / float64(n), nil
}
