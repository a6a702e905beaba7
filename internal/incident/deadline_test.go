package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

func TestDeadline(t *testing.T) {
	detected := now.Add(-10 * time.Hour)
	assert.Equal(t, detected.Add(72*time.Hour), Deadline(detected))
}

func TestHoursRemaining(t *testing.T) {
	tests := []struct {
		name       string
		detectedAt time.Time
		want       float64
	}{
		{"just detected", now, 72},
		{"one hour left", now.Add(-71 * time.Hour), 1},
		{"thirty minutes left", now.Add(-71*time.Hour - 30*time.Minute), 0.5},
		{"exactly at deadline", now.Add(-72 * time.Hour), 0},
		{"past deadline clamps to zero", now.Add(-80 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HoursRemaining(tt.detectedAt, now), 1e-9)
		})
	}
}

func TestIsPassed(t *testing.T) {
	assert.False(t, IsPassed(now.Add(-71*time.Hour-59*time.Minute), now))
	assert.True(t, IsPassed(now.Add(-72*time.Hour), now))
	assert.True(t, IsPassed(now.Add(-73*time.Hour), now))
}

func TestHoursOverdue(t *testing.T) {
	assert.Zero(t, HoursOverdue(now.Add(-10*time.Hour), now))
	assert.Zero(t, HoursOverdue(now.Add(-72*time.Hour), now))
	assert.InDelta(t, 1, HoursOverdue(now.Add(-73*time.Hour), now), 1e-9)
	assert.InDelta(t, 2.5, HoursOverdue(now.Add(-74*time.Hour-30*time.Minute), now), 1e-9)
}

func TestCountdown(t *testing.T) {
	t.Run("rounds down to whole hours and minutes", func(t *testing.T) {
		hours, minutes := Countdown(now.Add(-70*time.Hour-30*time.Minute-45*time.Second), now)
		assert.Equal(t, 1, hours)
		assert.Equal(t, 29, minutes)
	})

	t.Run("zeroes out past the deadline", func(t *testing.T) {
		hours, minutes := Countdown(now.Add(-100*time.Hour), now)
		assert.Zero(t, hours)
		assert.Zero(t, minutes)
	})
}

func TestNewIncidentID(t *testing.T) {
	id := NewIncidentID(now)
	assert.Regexp(t, `^BR-20260410-150000-[A-Z0-9]{6}$`, id)
	assert.NotEqual(t, id, NewIncidentID(now), "suffix must make IDs unique within a second")
}
