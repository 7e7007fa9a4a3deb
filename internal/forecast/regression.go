package forecast

import "math"

const (
	defaultConfidence    = 50
	minConfidenceSamples = 3
	varianceWeight       = 10
	minConfidence        = 0
	maxConfidence        = 100
)

// Fit runs ordinary least squares on (position, rate) pairs. Calendar dates are ignored.
func Fit(series []Observation) (Regression, error) {
	n := len(series)
	if n < MinSampleSize {
		return Regression{}, &InsufficientDataError{Required: MinSampleSize, Actual: n}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, obs := range series {
		x := float64(i)
		sumX += x
		sumY += obs.Rate
		sumXY += x * obs.Rate
		sumXX += x * x
	}

	count := float64(n)
	denom := count*sumXX - sumX*sumX
	if denom == 0 {
		return Regression{}, ErrDegenerateSeries
	}

	slope := (count*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / count
	if !isFinite(slope) || !isFinite(intercept) {
		return Regression{}, ErrNonFiniteResult
	}

	return Regression{Slope: slope, Intercept: intercept}, nil
}

// Confidence scores how tightly the history sits around the prediction.
// Short series get a neutral 50.
func Confidence(series []Observation, predicted float64) int {
	if len(series) < minConfidenceSamples {
		return defaultConfidence
	}

	var sumSquares float64
	for _, obs := range series {
		diff := obs.Rate - predicted
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(len(series))

	score := math.Round(100 - variance*varianceWeight)
	if math.IsNaN(score) || score < minConfidence {
		return minConfidence
	}
	if score > maxConfidence {
		return maxConfidence
	}
	return int(score)
}
