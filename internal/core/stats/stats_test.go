package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

func hourlyBuckets(now time.Time, counts ...int) []domain.CountBucket {
	buckets := make([]domain.CountBucket, len(counts))
	for i, c := range counts {
		buckets[i] = domain.CountBucket{
			SubjectID:   "subject-1",
			BucketStart: now.Add(-time.Duration(len(counts)-1-i) * time.Hour),
			Count:       c,
		}
	}

	return buckets
}

func TestAnalyzeSeries_TrendingExample(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	analyzer := NewAnalyzer()

	// Series 2,2,3,4 spread over old history plus a recent bucket of 9:
	// mean 4, stddev ~2.61, current 9 => z ~1.92 which clears the 1.5
	// threshold, and 9 >= 5 clears the absolute floor.
	buckets := []domain.CountBucket{
		{BucketStart: now.Add(-100 * time.Hour), Count: 2},
		{BucketStart: now.Add(-80 * time.Hour), Count: 2},
		{BucketStart: now.Add(-60 * time.Hour), Count: 3},
		{BucketStart: now.Add(-40 * time.Hour), Count: 4},
		{BucketStart: now.Add(-2 * time.Hour), Count: 9},
	}

	analysis := analyzer.AnalyzeSeries(buckets, now)
	require.NotNil(t, analysis)

	assert.Equal(t, 9, analysis.CurrentCount)
	assert.InDelta(t, 4.0, analysis.Mean, 0.001)
	assert.InDelta(t, 2.61, analysis.StdDev, 0.01)
	assert.InDelta(t, 1.92, analysis.ZScore, 0.01)
	assert.Greater(t, analysis.ZScore, DefaultZScoreThreshold)
	assert.True(t, analysis.IsTrending)
	assert.Equal(t, 5, analysis.TotalBuckets)
	assert.Equal(t, 1, analysis.RecentBuckets)
}

func TestAnalyzeSeries_FlatHistoryNoDivisionByZero(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	analyzer := NewAnalyzer()

	analysis := analyzer.AnalyzeSeries(hourlyBuckets(now, 3, 3, 3, 3, 3), now)
	require.NotNil(t, analysis)

	assert.Zero(t, analysis.StdDev)
	assert.Zero(t, analysis.ZScore)
	assert.False(t, analysis.IsTrending)
}

func TestAnalyzeSeries_AbsoluteFloorBlocksLowVolume(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	analyzer := NewAnalyzer()

	// High z-score but the recent window only holds 4 mentions.
	buckets := []domain.CountBucket{
		{BucketStart: now.Add(-100 * time.Hour), Count: 0},
		{BucketStart: now.Add(-80 * time.Hour), Count: 0},
		{BucketStart: now.Add(-60 * time.Hour), Count: 0},
		{BucketStart: now.Add(-40 * time.Hour), Count: 0},
		{BucketStart: now.Add(-2 * time.Hour), Count: 4},
	}

	analysis := analyzer.AnalyzeSeries(buckets, now)
	require.NotNil(t, analysis)

	assert.Greater(t, analysis.ZScore, DefaultZScoreThreshold)
	assert.False(t, analysis.IsTrending)
}

func TestAnalyzeSeries_Empty(t *testing.T) {
	analyzer := NewAnalyzer()
	assert.Nil(t, analyzer.AnalyzeSeries(nil, time.Now()))
}

func TestHeatScore(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		mean     float64
		expected float64
	}{
		{name: "above baseline", current: 9, mean: 4, expected: 1.0},
		{name: "at baseline", current: 4, mean: 4, expected: 0},
		{name: "below baseline", current: 1, mean: 4, expected: -0.6},
		{name: "zero baseline", current: 3, mean: 0, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HeatScore(tt.current, tt.mean), 0.001)
		})
	}
}

func TestDerivatives(t *testing.T) {
	velocities, accelerations, jerks := Derivatives([]float64{1, 2, 4, 7, 11})

	assert.Equal(t, []float64{1, 2, 3, 4}, velocities)
	assert.Equal(t, []float64{1, 1, 1}, accelerations)
	assert.Equal(t, []float64{0}, jerks)
}

func TestSnapScore(t *testing.T) {
	tests := []struct {
		name     string
		counts   []float64
		expected float64
	}{
		{
			name:     "too short",
			counts:   []float64{1, 2, 3},
			expected: 0,
		},
		{
			// Linear growth: accelerations are constant so the latest
			// jerk is 0 and the snap score collapses to 0.
			name:     "constant acceleration",
			counts:   []float64{1, 2, 4, 7, 11},
			expected: 0,
		},
		{
			// Velocities 1,3,9 -> accelerations 2,6 -> jerk 4.
			// Variance of accelerations is 4, so snap = 4*6/4 = 6.
			name:     "accelerating growth",
			counts:   []float64{1, 2, 5, 14},
			expected: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SnapScore(tt.counts), 0.001)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.96, Round2(1.9607))
	assert.Equal(t, -0.6, Round2(-0.601))
	assert.Equal(t, 2.0, Round2(1.999))
}
