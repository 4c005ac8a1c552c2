package stats

// TrendState is the discrete lifecycle stage of a tracked entity.
type TrendState string

const (
	TrendNew       TrendState = "New"
	TrendExploding TrendState = "Exploding"
	TrendSlowBurn  TrendState = "Slow Burn"
	TrendDeclining TrendState = "Declining"
	TrendPeaked    TrendState = "Peaked"
	TrendStable    TrendState = "Stable"
)

// ClassifierThresholds are the tunable boundaries between trend states.
type ClassifierThresholds struct {
	NewMaxVolume     int
	ExplodingZScore  float64
	ExplodingVolume  int
	SlowBurnSlope    float64
	SlowBurnRSquared float64
	SlowBurnVolume   int
	DecliningZScore  float64
	DecliningSlope   float64
	PeakedVolume     int
}

// DefaultClassifierThresholds returns the production boundaries.
func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholds{
		NewMaxVolume:     3,
		ExplodingZScore:  2,
		ExplodingVolume:  10,
		SlowBurnSlope:    0.15,
		SlowBurnRSquared: 0.7,
		SlowBurnVolume:   5,
		DecliningZScore:  -1,
		DecliningSlope:   -0.1,
		PeakedVolume:     20,
	}
}

// ClassifyTrend maps the statistical read of an entity to a trend state.
// Rules are checked in priority order; the first match wins.
func ClassifyTrend(zScore float64, reg Regression, volume24h int, t ClassifierThresholds) TrendState {
	switch {
	case volume24h < t.NewMaxVolume:
		return TrendNew
	case zScore > t.ExplodingZScore && volume24h > t.ExplodingVolume:
		return TrendExploding
	case reg.Slope > t.SlowBurnSlope && reg.RSquared > t.SlowBurnRSquared && volume24h > t.SlowBurnVolume:
		return TrendSlowBurn
	case zScore < t.DecliningZScore && reg.Slope < t.DecliningSlope:
		return TrendDeclining
	case volume24h > t.PeakedVolume:
		return TrendPeaked
	default:
		return TrendStable
	}
}
