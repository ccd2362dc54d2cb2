package domain

import (
	"time"
)

// EventTypePush is the only event type that contributes activity.
const EventTypePush = "push"

// RawEvent is a validated activity record from the events source.
type RawEvent struct {
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo,omitempty"`
	CommitCount int       `json:"commit_count"`
}

// IsPush reports whether the event contributes to activity.
func (e RawEvent) IsPush() bool { return e.Type == EventTypePush }

// PointSource records where a daily point came from.
type PointSource string

const (
	SourceUser        PointSource = "user"
	SourceBaseline    PointSource = "baseline"
	SourceWeatherOnly PointSource = "weather-only"
)

// DailyPoint is one day of activity.
type DailyPoint struct {
	Date          string      `json:"date"`
	Commits       int         `json:"commits"`
	Events        int         `json:"events"`
	ActivityScore float64     `json:"activityScore"`
	Source        PointSource `json:"source"`
	Contributors  int         `json:"contributors,omitempty"` // distinct sources that reported activity
	Scaled        bool        `json:"scaled,omitempty"`       // ActivityScore holds a normalized value
}

// NewDailyPoint builds a point with non-negative counts and a clamped score.
func NewDailyPoint(date string, commits, events int, score float64, source PointSource) DailyPoint {
	return DailyPoint{
		Date:          date,
		Commits:       max(commits, 0),
		Events:        max(events, 0),
		ActivityScore: ClampScore(score),
		Source:        source,
	}
}

// EmptyPoint is the zero-activity placeholder for a day with no data.
func EmptyPoint(date string, source PointSource) DailyPoint {
	return DailyPoint{Date: date, Source: source}
}

// ClampScore bounds an activity score to [0, 100]. NaN maps to 0.
func ClampScore(score float64) float64 {
	switch {
	case score != score, score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Conditions is a categorical weather bucket.
type Conditions string

const (
	ConditionsHeavyRain Conditions = "heavy_rain"
	ConditionsLightRain Conditions = "light_rain"
	ConditionsHot       Conditions = "hot"
	ConditionsWarm      Conditions = "warm"
	ConditionsPleasant  Conditions = "pleasant"
	ConditionsCool      Conditions = "cool"
	ConditionsUnknown   Conditions = "unknown"
)

// WeatherSeries is the validated parallel-array shape of a weather response.
// Entries are positionally aligned by date index; nil marks a missing value.
type WeatherSeries struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}

// Len returns the number of dates in the series.
func (s WeatherSeries) Len() int { return len(s.Time) }

// WeatherObservation is one day of weather.
type WeatherObservation struct {
	Date       string     `json:"date"`
	MaxTemp    *float64   `json:"maxTemp"`
	Rainfall   float64    `json:"rainfall"`
	Conditions Conditions `json:"conditions"`
}

// NewWeatherObservation normalizes rainfall and derives the condition bucket.
func NewWeatherObservation(date string, maxTemp, rainfall *float64) WeatherObservation {
	rain := 0.0
	if rainfall != nil && *rainfall > 0 {
		rain = *rainfall
	}
	var temp *float64
	if maxTemp != nil {
		t := *maxTemp
		temp = &t
	}
	return WeatherObservation{
		Date:       date,
		MaxTemp:    temp,
		Rainfall:   rain,
		Conditions: DetermineWeatherConditions(temp, rain),
	}
}

// WeatherSnapshot is the weather attached to a synchronized point.
type WeatherSnapshot struct {
	MaxTemp    *float64   `json:"maxTemp"`
	Rainfall   float64    `json:"rainfall"`
	Conditions Conditions `json:"conditions"`
}

// UnknownWeather is the sentinel attached to days with no observation.
func UnknownWeather() WeatherSnapshot {
	return WeatherSnapshot{Conditions: ConditionsUnknown}
}

// Known reports whether the snapshot carries an actual observation.
func (w WeatherSnapshot) Known() bool {
	return w.MaxTemp != nil && w.Conditions != ConditionsUnknown
}

// Snapshot returns the observation as an attachable snapshot.
func (o WeatherObservation) Snapshot() WeatherSnapshot {
	return WeatherSnapshot{MaxTemp: o.MaxTemp, Rainfall: o.Rainfall, Conditions: o.Conditions}
}

// SynchronizedPoint is a daily point joined with that day's weather.
type SynchronizedPoint struct {
	DailyPoint
	Weather WeatherSnapshot `json:"weather"`
}
