package stats

// Point is one (x, y) observation for regression.
type Point struct {
	X float64
	Y float64
}

// Regression holds the least-squares fit of a count series.
type Regression struct {
	Slope    float64
	RSquared float64
}

// LinearRegression fits y = slope*x + intercept over the points and
// returns the slope with its coefficient of determination. Fewer than
// two points, or a degenerate x distribution, yields the zero value.
func LinearRegression(points []Point) Regression {
	n := float64(len(points))
	if n < 2 {
		return Regression{}
	}

	var sumX, sumY, sumXY, sumX2 float64

	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumX2 += p.X * p.X
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return Regression{}
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n

	var ssTotal, ssResidual float64

	for _, p := range points {
		dTotal := p.Y - meanY
		ssTotal += dTotal * dTotal

		dResidual := p.Y - (slope*p.X + intercept)
		ssResidual += dResidual * dResidual
	}

	rsquared := 0.0
	if ssTotal > 0 {
		rsquared = 1 - ssResidual/ssTotal
	}

	return Regression{Slope: slope, RSquared: rsquared}
}
