// Package stats implements the time-series math behind trend detection.
//
// The package provides:
//   - Baseline statistics (mean, standard deviation, z-score) over hourly
//     count buckets
//   - The legacy heat score retained for backward compatibility
//   - The velocity → acceleration → jerk ("snap") derivative chain used to
//     detect imminent inflection points
//   - Entity momentum dynamics (G-force, confidence, signal classification)
//   - Discrete trend state classification
//
// All functions are pure; persistence happens in the pipelines.
package stats

import (
	"math"
	"time"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

const (
	// DefaultZScoreThreshold is how many standard deviations above the
	// baseline the recent window must sit to count as trending.
	DefaultZScoreThreshold = 1.5

	// DefaultMinCurrentCount is the absolute floor on recent volume.
	// It keeps a flat two-mentions-a-week keyword from "trending" on noise.
	DefaultMinCurrentCount = 5

	// DefaultRecentWindow is the window treated as "current" volume.
	DefaultRecentWindow = 24 * time.Hour

	// minSnapPoints is the minimum series length that yields a jerk value.
	minSnapPoints = 4
)

// Analyzer computes trend statistics over a bucketed count series.
type Analyzer struct {
	ZScoreThreshold float64
	MinCurrentCount int
	RecentWindow    time.Duration
}

// NewAnalyzer returns an Analyzer with the default thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		ZScoreThreshold: DefaultZScoreThreshold,
		MinCurrentCount: DefaultMinCurrentCount,
		RecentWindow:    DefaultRecentWindow,
	}
}

// Analysis is the result of one pass over a count series.
type Analysis struct {
	CurrentCount  int
	Mean          float64
	StdDev        float64
	ZScore        float64
	HeatScore     float64
	SnapScore     float64
	IsTrending    bool
	TotalBuckets  int
	RecentBuckets int
}

// AnalyzeSeries computes baseline and recent-window statistics over
// time-ordered buckets. The mean and standard deviation cover the entire
// series; only the current count is restricted to the recent window.
// Returns nil when the series is empty.
func (a *Analyzer) AnalyzeSeries(buckets []domain.CountBucket, now time.Time) *Analysis {
	if len(buckets) == 0 {
		return nil
	}

	cutoff := now.Add(-a.RecentWindow)

	current := 0
	recentBuckets := 0
	counts := make([]float64, len(buckets))

	for i, b := range buckets {
		counts[i] = float64(b.Count)

		if !b.BucketStart.Before(cutoff) {
			current += b.Count
			recentBuckets++
		}
	}

	mean := Mean(counts)
	stdDev := StdDev(counts, mean)
	zScore := ZScore(float64(current), mean, stdDev)
	heatScore := HeatScore(float64(current), mean)

	return &Analysis{
		CurrentCount:  current,
		Mean:          Round2(mean),
		StdDev:        Round2(stdDev),
		ZScore:        Round2(zScore),
		HeatScore:     Round2(heatScore),
		SnapScore:     Round2(SnapScore(counts)),
		IsTrending:    zScore > a.ZScoreThreshold && current >= a.MinCurrentCount,
		TotalBuckets:  len(buckets),
		RecentBuckets: recentBuckets,
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Variance returns the population variance around the given mean.
func Variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around the given mean.
func StdDev(values []float64, mean float64) float64 {
	return math.Sqrt(Variance(values, mean))
}

// ZScore measures how many standard deviations current sits from the
// baseline. A flat history (zero deviation) yields 0, never a division
// by zero.
func ZScore(current, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}

	return (current - mean) / stdDev
}

// HeatScore is the legacy relative-change metric, (current-mean)/(mean+1).
// It is unbounded and independent of the z-score; both are stored.
func HeatScore(current, mean float64) float64 {
	return (current - mean) / (mean + 1)
}

// Derivatives returns the velocity, acceleration and jerk chains of a
// count series. Each chain is one element shorter than its input.
func Derivatives(counts []float64) (velocities, accelerations, jerks []float64) {
	velocities = diff(counts)
	accelerations = diff(velocities)
	jerks = diff(accelerations)

	return velocities, accelerations, jerks
}

// SnapScore condenses the derivative chain into a single inflection
// metric: latest jerk scaled by the magnitude of the latest acceleration,
// damped by how unstable the acceleration series is. A series shorter
// than four points has no jerk and scores 0.
func SnapScore(counts []float64) float64 {
	if len(counts) < minSnapPoints {
		return 0
	}

	_, accelerations, jerks := Derivatives(counts)

	latestJerk := jerks[len(jerks)-1]
	latestAccel := accelerations[len(accelerations)-1]

	stability := Variance(accelerations, Mean(accelerations))
	if stability == 0 {
		stability = 1
	}

	return latestJerk * math.Abs(latestAccel) / stability
}

// Round2 rounds to two decimal places so stored scores are reproducible.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}

	return out
}
