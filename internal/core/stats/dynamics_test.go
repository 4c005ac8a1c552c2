package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

func dailyMentions(counts ...int) []domain.EntityMention {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mentions := make([]domain.EntityMention, len(counts))
	for i, c := range counts {
		mentions[i] = domain.EntityMention{
			EntityID: "entity-1",
			Date:     base.AddDate(0, 0, i),
			Count:    c,
		}
	}

	return mentions
}

func TestAnalyzeDynamics(t *testing.T) {
	tests := []struct {
		name     string
		counts   []int
		expected Dynamics
	}{
		{
			name:     "too few points",
			counts:   []int{1, 2},
			expected: Dynamics{},
		},
		{
			// Velocities 1,2,3 -> avg 2. Accelerations 1,1 -> avg 1.
			// G-force = 1*100/sqrt(7) ~ 37.80, both accelerations
			// positive -> confidence 100.
			name:   "steady acceleration",
			counts: []int{1, 2, 4, 7},
			expected: Dynamics{
				Velocity:      2,
				Acceleration:  1,
				GForce:        37.8,
				Confidence:    100,
				CurrentVolume: 7,
			},
		},
		{
			// Declining series: negative average acceleration means no
			// G-force at all, not a negative one.
			name:   "fading",
			counts: []int{10, 8, 5, 1},
			expected: Dynamics{
				Velocity:      -3,
				Acceleration:  -1,
				GForce:        0,
				Confidence:    0,
				CurrentVolume: 1,
			},
		},
		{
			// Low volume but accelerating: the sqrt normalization makes
			// the hidden gem score higher than a big subject would.
			name:   "hidden gem",
			counts: []int{0, 1, 3, 6},
			expected: Dynamics{
				Velocity:      2,
				Acceleration:  1,
				GForce:        40.82,
				Confidence:    100,
				CurrentVolume: 6,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnalyzeDynamics(dailyMentions(tt.counts...)))
		})
	}
}

func TestAnalyzeDynamics_UsesMostRecentFourteenPoints(t *testing.T) {
	// 20 points: the first six are huge spikes that must be ignored.
	counts := []int{100, 100, 100, 100, 100, 100, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	got := AnalyzeDynamics(dailyMentions(counts...))

	assert.Zero(t, got.Velocity)
	assert.Zero(t, got.Acceleration)
	assert.Equal(t, 1, got.CurrentVolume)
}

func TestClassifySignal(t *testing.T) {
	tests := []struct {
		name     string
		counts   []int
		expected Signal
	}{
		{
			name:     "insufficient data",
			counts:   []int{1, 2, 4, 7},
			expected: SignalInsufficientData,
		},
		{
			// Velocities 1,2,3,4 -> accelerations 1,1,1 -> jerks 0,0.
			// Latest jerk is 0, so this is Neutral, not Pre-Explosion.
			name:     "linear acceleration is neutral",
			counts:   []int{1, 2, 4, 7, 11},
			expected: SignalNeutral,
		},
		{
			// Velocities 1,2,4,8 -> accelerations 1,2,4 -> jerks 1,2.
			// Positive jerk and acceleration.
			name:     "pre-explosion",
			counts:   []int{1, 2, 4, 8, 16},
			expected: SignalPreExplosion,
		},
		{
			// Velocities 8,4,2,1 -> accelerations -4,-2,-1 -> jerks 2,1.
			// Growth still slowing down but the slowdown is easing while
			// velocity stays positive.
			name:     "accelerating recovery",
			counts:   []int{1, 9, 13, 15, 16},
			expected: SignalAccelerating,
		},
		{
			// Velocities 4,6,2,-1 -> accelerations 2,-4,-3 -> jerks -6,1.
			// Positive jerk with negative latest velocity.
			name:     "potential reversal",
			counts:   []int{1, 5, 11, 13, 12},
			expected: SignalPotentialReversal,
		},
		{
			// Velocities -1,-2,-4,-8 -> accelerations -1,-2,-4 ->
			// jerks -1,-2. Everything collapsing.
			name:     "fading",
			counts:   []int{16, 15, 13, 9, 1},
			expected: SignalFading,
		},
		{
			// Velocities 1,4,12,14 -> accelerations 3,8,2 -> jerks 5,-6.
			// Negative jerk while acceleration is still positive.
			name:     "topping out",
			counts:   []int{1, 2, 6, 18, 32},
			expected: SignalToppingOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySignal(dailyMentions(tt.counts...)))
		})
	}
}
