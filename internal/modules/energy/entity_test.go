package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotFor(t *testing.T) {
	at := time.Date(2026, 3, 3, 9, 45, 12, 0, time.UTC)
	assert.Equal(t, "09:00", SlotFor(at))

	at = time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "23:00", SlotFor(at))
}

func TestMinutesOfDay(t *testing.T) {
	tests := []struct {
		slot string
		want int
	}{
		{"00:00", 0},
		{"09:00", 540},
		{"23:59", 1439},
		{"24:00", -1},
		{"09:60", -1},
		{"garbage", -1},
		{"", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinutesOfDay(tt.slot), tt.slot)
	}
}
