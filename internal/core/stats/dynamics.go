package stats

import (
	"math"
	"sort"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

const (
	// maxDynamicsPoints caps the history used for momentum analysis to
	// the most recent two weeks of daily counts.
	maxDynamicsPoints = 14

	// minDynamicsPoints is the minimum history for any dynamics output.
	minDynamicsPoints = 3

	// minSignalPoints is the minimum history for signal classification:
	// five counts yield the first jerk value.
	minSignalPoints = 5

	gForceScale = 100
)

// Dynamics describes an entity's mention momentum.
type Dynamics struct {
	Velocity      float64
	Acceleration  float64
	GForce        float64
	Confidence    int
	CurrentVolume int
}

// AnalyzeDynamics computes average velocity and acceleration over the
// most recent daily mention counts, plus the G-force momentum score.
// G-force rewards acceleration normalized by current size, so a
// low-volume subject that is accelerating scores high. Fewer than three
// points yields the zero value.
func AnalyzeDynamics(mentions []domain.EntityMention) Dynamics {
	counts := sortedCounts(mentions)
	if len(counts) > maxDynamicsPoints {
		counts = counts[len(counts)-maxDynamicsPoints:]
	}

	if len(counts) < minDynamicsPoints {
		return Dynamics{}
	}

	velocities, accelerations, _ := Derivatives(counts)

	avgVelocity := Mean(velocities)
	avgAcceleration := Mean(accelerations)
	currentVolume := counts[len(counts)-1]

	gForce := 0.0
	if avgAcceleration > 0 {
		gForce = avgAcceleration * gForceScale / math.Sqrt(math.Max(currentVolume, 1))
	}

	confidence := 0
	if len(accelerations) > 0 {
		positive := 0

		for _, a := range accelerations {
			if a > 0 {
				positive++
			}
		}

		confidence = int(math.Round(float64(positive) / float64(len(accelerations)) * 100))
	}

	return Dynamics{
		Velocity:      Round2(avgVelocity),
		Acceleration:  Round2(avgAcceleration),
		GForce:        Round2(gForce),
		Confidence:    confidence,
		CurrentVolume: int(currentVolume),
	}
}

// Signal is the qualitative read of an entity's derivative chain.
type Signal string

const (
	SignalPreExplosion      Signal = "Pre-Explosion"
	SignalToppingOut        Signal = "Topping Out"
	SignalPotentialReversal Signal = "Potential Reversal"
	SignalFading            Signal = "Fading"
	SignalAccelerating      Signal = "Accelerating"
	SignalNeutral           Signal = "Neutral"
	SignalInsufficientData  Signal = "Insufficient Data"
)

// signalRule matches the signs of the latest (jerk, acceleration,
// velocity). A zero field means "any sign". Rules are evaluated in
// order; the first match wins. Keeping this an explicit table makes the
// decision auditable against the derivative chain.
type signalRule struct {
	jerk     int8
	accel    int8
	velocity int8
	signal   Signal
}

var signalRules = []signalRule{
	{jerk: +1, accel: +1, signal: SignalPreExplosion},
	{jerk: -1, accel: +1, signal: SignalToppingOut},
	{jerk: +1, velocity: -1, signal: SignalPotentialReversal},
	{jerk: -1, accel: -1, signal: SignalFading},
	{jerk: +1, velocity: +1, signal: SignalAccelerating},
}

// ClassifySignal inspects the signs of the latest jerk, acceleration and
// velocity of the mention series. Fewer than five points cannot produce
// a jerk value and classify as Insufficient Data.
func ClassifySignal(mentions []domain.EntityMention) Signal {
	counts := sortedCounts(mentions)
	if len(counts) < minSignalPoints {
		return SignalInsufficientData
	}

	velocities, accelerations, jerks := Derivatives(counts)

	latestJerk := jerks[len(jerks)-1]
	latestAccel := accelerations[len(accelerations)-1]
	latestVelocity := velocities[len(velocities)-1]

	for _, rule := range signalRules {
		if matchesSign(rule.jerk, latestJerk) &&
			matchesSign(rule.accel, latestAccel) &&
			matchesSign(rule.velocity, latestVelocity) {
			return rule.signal
		}
	}

	return SignalNeutral
}

func matchesSign(want int8, value float64) bool {
	switch {
	case want > 0:
		return value > 0
	case want < 0:
		return value < 0
	default:
		return true
	}
}

func sortedCounts(mentions []domain.EntityMention) []float64 {
	sorted := make([]domain.EntityMention, len(mentions))
	copy(sorted, mentions)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	counts := make([]float64, len(sorted))
	for i, m := range sorted {
		counts[i] = float64(m.Count)
	}

	return counts
}
