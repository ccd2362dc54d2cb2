package processing

import (
	"fmt"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// WeatherObservations converts the parallel-array weather series into one
// observation per valid date. Entries with an invalid or duplicate date are
// skipped with a warning; missing temperature or rainfall values become nil
// temperature and 0 mm rain.
func WeatherObservations(series domain.WeatherSeries) ([]domain.WeatherObservation, []string) {
	var warnings []string
	seen := make(map[string]struct{}, series.Len())
	out := make([]domain.WeatherObservation, 0, series.Len())

	for i, date := range series.Time {
		if err := domain.ValidateDate(date); err != nil {
			warnings = append(warnings, fmt.Sprintf("weather item %d: %v", i, err))
			continue
		}
		if _, dup := seen[date]; dup {
			warnings = append(warnings, fmt.Sprintf("weather item %d: duplicate date %s", i, date))
			continue
		}
		seen[date] = struct{}{}
		out = append(out, domain.NewWeatherObservation(date, at(series.TemperatureMax, i), at(series.PrecipitationSum, i)))
	}
	return out, warnings
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// SynchronizeActivityAndWeather outer-joins activity with weather on date.
// Every activity point gets its day's weather or the unknown sentinel; weather
// days without activity become zero-activity weather-only points. The result
// is sorted chronologically. A nil weather slice yields activity-only output.
func SynchronizeActivityAndWeather(activity []domain.DailyPoint, weather []domain.WeatherObservation) []domain.SynchronizedPoint {
	lookup := make(map[string]domain.WeatherObservation, len(weather))
	for _, obs := range weather {
		if domain.ValidateDate(obs.Date) != nil {
			continue
		}
		if _, dup := lookup[obs.Date]; !dup {
			lookup[obs.Date] = obs
		}
	}

	out := make([]domain.SynchronizedPoint, 0, len(activity)+len(lookup))
	seen := make(map[string]struct{}, len(activity))
	for _, p := range activity {
		if _, dup := seen[p.Date]; dup {
			continue
		}
		seen[p.Date] = struct{}{}

		snap := domain.UnknownWeather()
		if obs, ok := lookup[p.Date]; ok {
			snap = obs.Snapshot()
		}
		out = append(out, domain.SynchronizedPoint{DailyPoint: p, Weather: snap})
	}

	for date, obs := range lookup {
		if _, ok := seen[date]; ok {
			continue
		}
		out = append(out, domain.SynchronizedPoint{
			DailyPoint: domain.EmptyPoint(date, domain.SourceWeatherOnly),
			Weather:    obs.Snapshot(),
		})
	}

	sortSynchronized(out)
	return out
}
