package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"focusflow/internal/modules/energy"
)

func newTestRepo(t *testing.T) *EnergyDatabase {
	t.Helper()

	path := filepath.Join(t.TempDir(), "energy.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&energy.Pattern{}))

	return NewEnergyDatabase(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bucketFor(t *testing.T, repo *EnergyDatabase, userID uint, dayOfWeek int, slot string) *energy.Pattern {
	t.Helper()

	patterns, err := repo.GetPatternsForDay(userID, dayOfWeek)
	require.NoError(t, err)
	for _, p := range patterns {
		if p.TimeSlot == slot {
			return p
		}
	}
	t.Fatalf("no bucket %s for user %d day %d", slot, userID, dayOfWeek)
	return nil
}

func TestRecordObservation_IncrementalMean(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.RecordObservation(1, "09:00", 2, 4))
	require.NoError(t, repo.RecordObservation(1, "09:00", 2, 8))

	bucket := bucketFor(t, repo, 1, 2, "09:00")
	assert.Equal(t, 2, bucket.SampleCount)
	assert.InDelta(t, 6.0, bucket.AverageEnergyLevel, 1e-9)

	// Further samples keep converging toward the observed value instead of
	// overwriting the mean.
	previous := bucket.AverageEnergyLevel
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.RecordObservation(1, "09:00", 2, 10))

		bucket = bucketFor(t, repo, 1, 2, "09:00")
		assert.Greater(t, bucket.AverageEnergyLevel, previous)
		assert.Less(t, bucket.AverageEnergyLevel, 10.0)
		previous = bucket.AverageEnergyLevel
	}
	assert.Equal(t, 12, bucket.SampleCount)
	assert.InDelta(t, (6.0*2+10.0*10)/12.0, bucket.AverageEnergyLevel, 1e-6)
}

func TestRecordObservation_BucketsAreIndependent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.RecordObservation(1, "09:00", 2, 4))
	require.NoError(t, repo.RecordObservation(1, "10:00", 2, 8))
	require.NoError(t, repo.RecordObservation(1, "09:00", 3, 2))
	require.NoError(t, repo.RecordObservation(2, "09:00", 2, 9))

	bucket := bucketFor(t, repo, 1, 2, "09:00")
	assert.Equal(t, 1, bucket.SampleCount)
	assert.InDelta(t, 4.0, bucket.AverageEnergyLevel, 1e-9)

	assert.InDelta(t, 8.0, bucketFor(t, repo, 1, 2, "10:00").AverageEnergyLevel, 1e-9)
	assert.InDelta(t, 2.0, bucketFor(t, repo, 1, 3, "09:00").AverageEnergyLevel, 1e-9)
	assert.InDelta(t, 9.0, bucketFor(t, repo, 2, 2, "09:00").AverageEnergyLevel, 1e-9)
}
