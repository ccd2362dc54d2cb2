package insights

import (
	"fmt"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

const (
	// MinTrendPoints is the number of days needed for trend analysis.
	MinTrendPoints = 7

	momentumWindow = 7

	growthPositive  = 10.0
	growthConcern   = -10.0
	stableVolatile  = 15.0
	erraticVolatile = 60.0
)

// AnalyzeTrend reports the growth rate between the first and second half of
// the series, its volatility and its recent momentum. Points are expected in
// chronological order.
func AnalyzeTrend(series []domain.DailyPoint) domain.TrendAnalysis {
	n := len(series)
	if n < MinTrendPoints {
		return domain.TrendAnalysis{
			DataPoints: n,
			Direction:  domain.ToneNeutral,
			Message:    fmt.Sprintf("need at least %d days for trend analysis, have %d", MinTrendPoints, n),
		}
	}

	scores := make([]float64, n)
	for i, p := range series {
		scores[i] = p.ActivityScore
	}

	half := n / 2
	growth := growthRate(Mean(scores[:half]), Mean(scores[half:]))

	window := min(momentumWindow, half)
	momentum := Mean(scores[n-window:]) - Mean(scores[n-2*window:n-window])

	return domain.TrendAnalysis{
		HasEnoughData: true,
		DataPoints:    n,
		GrowthRate:    growth,
		Volatility:    CoefficientOfVariation(scores),
		Momentum:      momentum,
		Direction:     TrendDirection(growth),
	}
}

// TrendDirection maps a growth rate to a tone.
func TrendDirection(growth float64) domain.Tone {
	switch {
	case growth > growthPositive:
		return domain.TonePositive
	case growth < growthConcern:
		return domain.ToneConcern
	default:
		return domain.ToneNeutral
	}
}

func growthRate(before, after float64) float64 {
	if before == 0 {
		if after > 0 {
			return 100
		}
		return 0
	}
	return (after - before) / before * 100
}
