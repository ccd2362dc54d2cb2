package pipeline

import (
	"fmt"
	"log/slog"

	ghadapter "github.com/couchcryptid/activity-insights-service/internal/adapter/github"
	"github.com/couchcryptid/activity-insights-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/activity-insights-service/internal/config"
	"github.com/couchcryptid/activity-insights-service/internal/fetch"
	"github.com/couchcryptid/activity-insights-service/internal/insights"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
)

// NewFromConfig wires the GitHub and Open-Meteo adapters behind a fetch
// client and returns a ready Pipeline. publisher may be nil.
func NewFromConfig(cfg *config.Config, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	events, err := ghadapter.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL, logger)
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}

	loc := openmeteo.Location{
		Latitude:  cfg.WeatherLatitude,
		Longitude: cfg.WeatherLongitude,
		Timezone:  cfg.WeatherTimezone,
	}
	weather := openmeteo.NewCachedSource(
		openmeteo.NewClient(cfg.WeatherAPIURL, loc, cfg.RequestTimeout, logger),
		loc, cfg.WeatherCacheSize, metrics)

	client := fetch.NewClient(events, weather, FetchSettings(cfg), logger, metrics)
	defaults := Defaults{Orgs: cfg.BaselineOrgs, Days: cfg.AnalysisDays}
	return New(client, insights.NewGenerator(logger), publisher, defaults, logger, metrics), nil
}

// FetchSettings maps configuration onto the fetch client's resilience settings.
func FetchSettings(cfg *config.Config) fetch.Settings {
	return fetch.Settings{
		RateInterval: cfg.RateLimitInterval,
		Retry: fetch.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Jitter:      cfg.RetryJitter,
			Timeout:     cfg.RequestTimeout,
		},
		MaxEventPages:           cfg.EventsMaxPages,
		BreakerFailureThreshold: cfg.BreakerFailureThreshold,
		BreakerOpenTimeout:      fetch.DefaultSettings().BreakerOpenTimeout,
	}
}
