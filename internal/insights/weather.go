package insights

import (
	"fmt"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

const (
	// MinWeatherPoints is the number of days with known weather needed for
	// correlation analysis.
	MinWeatherPoints = 5

	minBucketPoints = 2
)

// FindWeatherCorrelations correlates activity scores with maximum temperature
// and rainfall over the days with known weather, and finds the condition
// bucket with the highest average score.
func FindWeatherCorrelations(points []domain.SynchronizedPoint) domain.WeatherAnalysis {
	var scores, temps, rain []float64
	buckets := make(map[domain.Conditions][]float64)

	for _, p := range points {
		if !p.Weather.Known() {
			continue
		}
		scores = append(scores, p.ActivityScore)
		temps = append(temps, *p.Weather.MaxTemp)
		rain = append(rain, p.Weather.Rainfall)
		buckets[p.Weather.Conditions] = append(buckets[p.Weather.Conditions], p.ActivityScore)
	}

	n := len(scores)
	if n < MinWeatherPoints {
		return domain.WeatherAnalysis{
			DataPoints: n,
			Message: fmt.Sprintf("need at least %d days with weather data, have %d",
				MinWeatherPoints, n),
		}
	}

	analysis := domain.WeatherAnalysis{
		HasEnoughData:   true,
		DataPoints:      n,
		Temperature:     Correlate(temps, scores),
		Rainfall:        Correlate(rain, scores),
		AverageByBucket: make(map[domain.Conditions]float64),
	}

	for cond, vals := range buckets {
		if len(vals) < minBucketPoints {
			continue
		}
		avg := Mean(vals)
		analysis.AverageByBucket[cond] = avg

		best := analysis.Optimal
		// Ties go to the alphabetically first bucket so output is stable.
		if best == nil || avg > best.AverageScore || (avg == best.AverageScore && cond < best.Conditions) {
			analysis.Optimal = &domain.OptimalConditions{Conditions: cond, AverageScore: avg, Days: len(vals)}
		}
	}
	return analysis
}
