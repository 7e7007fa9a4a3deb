// Package forecast projects the next fixed-deposit rate for a bank/tenure series
// using ordinary least squares over the observation position.
//
// Everything in this package is a pure function of its input. Callers load the
// series from storage and hand it over already ordered by observation date.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultMaxHistoryWindow bounds how many of the most recent observations feed a forecast.
	DefaultMaxHistoryWindow = 50
	// MinSampleSize is the smallest series a slope can be derived from.
	MinSampleSize = 2
)

// Trend labels the direction of the fitted line.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ErrInsufficientData is matched by every InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data for prediction")

// ErrDegenerateSeries reports a zero regression denominator. Positional indices make it
// unreachable for two or more points.
var ErrDegenerateSeries = errors.New("degenerate regression axis")

// ErrNonFiniteResult reports a fit or projection that left the float64 range.
var ErrNonFiniteResult = errors.New("regression produced a non-finite result")

// InsufficientDataError is returned when fewer than Required observations are available.
// It is not transient: retrying without new observations yields the same error.
type InsufficientDataError struct {
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Insufficient data for prediction. Need at least %d data points.", e.Required)
}

// Is lets errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Observation is one recorded rate. Index is its zero-based position in the
// chronologically ordered series.
type Observation struct {
	Index        int       `json:"sequenceIndex"`
	Rate         float64   `json:"rate"`
	BankName     string    `json:"bankName"`
	TenureMonths int       `json:"tenureMonths"`
	ObservedAt   time.Time `json:"date"`
}

// Regression is the fitted line rate = Slope*index + Intercept.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at the given position.
func (r Regression) At(index int) float64 {
	return r.Slope*float64(index) + r.Intercept
}

// Result is a packaged forecast.
type Result struct {
	PredictedRate   float64       `json:"predictedRate"`
	RawPrediction   float64       `json:"rawPrediction"`
	ConfidenceScore int           `json:"confidence"`
	Trend           Trend         `json:"trend"`
	SampleSize      int           `json:"dataPoints"`
	Regression      Regression    `json:"regression"`
	SourceSeries    []Observation `json:"historicalData"`
}

// NewSeries copies the observations and assigns Index by position.
func NewSeries(observations []Observation) []Observation {
	series := make([]Observation, len(observations))
	copy(series, observations)
	for i := range series {
		series[i].Index = i
	}
	return series
}

// Window returns the most recent maxHistoryWindow observations, re-indexed from zero.
// A non-positive window falls back to DefaultMaxHistoryWindow.
func Window(series []Observation, maxHistoryWindow int) []Observation {
	if maxHistoryWindow <= 0 {
		maxHistoryWindow = DefaultMaxHistoryWindow
	}
	if len(series) > maxHistoryWindow {
		series = series[len(series)-maxHistoryWindow:]
	}
	return NewSeries(series)
}

// TrendOf maps the slope sign to a label with zero tolerance.
func TrendOf(slope float64) Trend {
	switch {
	case slope > 0:
		return TrendIncreasing
	case slope < 0:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Forecast windows the series, fits it and projects one step past the last index.
func Forecast(series []Observation, maxHistoryWindow int) (*Result, error) {
	window := Window(series, maxHistoryWindow)
	if len(window) < MinSampleSize {
		return nil, &InsufficientDataError{Required: MinSampleSize, Actual: len(window)}
	}

	regression, err := Fit(window)
	if err != nil {
		return nil, err
	}

	raw := regression.At(len(window))
	if !isFinite(raw) {
		return nil, ErrNonFiniteResult
	}

	return &Result{
		PredictedRate:   roundRate(raw),
		RawPrediction:   raw,
		ConfidenceScore: Confidence(window, raw),
		Trend:           TrendOf(regression.Slope),
		SampleSize:      len(window),
		Regression:      regression,
		SourceSeries:    window,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// roundRate rounds to two decimals and floors at zero.
func roundRate(rate float64) float64 {
	return math.Max(0, math.Round(rate*100)/100)
}
