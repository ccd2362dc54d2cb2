// Package insights computes comparative statistics over daily activity series
// and turns them into categorized, confidence-scored insights.
//
// The statistics are pure functions that never return NaN: degenerate input
// (empty, mismatched, zero variance, zero mean) yields 0 instead.
package insights

import (
	"math"
	"slices"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// Correlation strength cut-offs on |r|.
const (
	weakThreshold        = 0.3
	moderateThreshold    = 0.5
	strongThreshold      = 0.7
	significantThreshold = 0.3
)

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

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// CalculateCorrelation returns the Pearson coefficient of x and y. Empty,
// mismatched or zero-variance input returns 0.
func CalculateCorrelation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	mx, my := Mean(x), Mean(y)

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// ClassifyCorrelation buckets r by magnitude and flags significance.
func ClassifyCorrelation(r float64, sampleSize int) domain.CorrelationResult {
	abs := math.Abs(r)
	strength := domain.StrengthStrong
	switch {
	case abs < weakThreshold:
		strength = domain.StrengthNegligible
	case abs < moderateThreshold:
		strength = domain.StrengthWeak
	case abs < strongThreshold:
		strength = domain.StrengthModerate
	}
	return domain.CorrelationResult{
		Coefficient:   r,
		Strength:      strength,
		IsSignificant: abs >= significantThreshold,
		SampleSize:    sampleSize,
	}
}

// Correlate computes and classifies the correlation of x and y.
func Correlate(x, y []float64) domain.CorrelationResult {
	return ClassifyCorrelation(CalculateCorrelation(x, y), min(len(x), len(y)))
}

// CalculateConsistency returns max(0, 1 - stdDev/mean). Empty input or a
// zero mean returns 0.
func CalculateConsistency(values []float64) float64 {
	m := Mean(values)
	if m == 0 {
		return 0
	}
	c := 1 - StdDev(values)/math.Abs(m)
	return math.Max(0, math.Min(1, c))
}

// CoefficientOfVariation returns stdDev/mean as a percentage, 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	m := Mean(values)
	if m == 0 {
		return 0
	}
	return StdDev(values) / math.Abs(m) * 100
}

// CalculatePercentile returns the p-th percentile (0..100) using linear
// interpolation between closest ranks.
func CalculatePercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p = math.Max(0, math.Min(100, p))
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// PercentileRank returns the percentage of values below v, counting ties as
// half. The result is in [0, 100]; empty input returns 0.
func PercentileRank(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	below, equal := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return (float64(below) + 0.5*float64(equal)) / float64(len(values)) * 100
}
