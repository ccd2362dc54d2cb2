// Package pipeline runs one activity analysis end to end: fetch the user,
// baseline and weather data concurrently, process it into daily series,
// generate insights, and optionally publish the report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/couchcryptid/activity-insights-service/internal/insights"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
	"github.com/couchcryptid/activity-insights-service/internal/processing"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MaxRangeDays bounds the length of an analysis window.
const MaxRangeDays = 366

// Fetcher retrieves the raw inputs of an analysis.
type Fetcher interface {
	FetchUserEvents(ctx context.Context, username string) ([]domain.RawEvent, error)
	FetchMultipleOrgEvents(ctx context.Context, orgs []string) (domain.FetchOutcome, error)
	FetchWeatherData(ctx context.Context, start, end string) (domain.WeatherSeries, error)
	CheckReadiness(ctx context.Context) error
}

// Publisher delivers finished reports.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Defaults fill in request fields the caller left empty.
type Defaults struct {
	Orgs []string
	Days int
}

// Pipeline orchestrates fetch, processing and insight generation.
type Pipeline struct {
	fetcher   Fetcher
	generator *insights.Generator
	publisher Publisher
	defaults  Defaults
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. publisher may be nil.
func New(f Fetcher, g *insights.Generator, publisher Publisher, defaults Defaults, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if defaults.Days < 1 {
		defaults.Days = 30
	}
	return &Pipeline{
		fetcher:   f,
		generator: g,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports whether the events source is accepting requests.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	return p.fetcher.CheckReadiness(ctx)
}

// Resolve applies defaults to req and validates it.
func (p *Pipeline) Resolve(req domain.AnalysisRequest) (domain.AnalysisRequest, error) {
	if req.Orgs == nil {
		req.Orgs = append([]string(nil), p.defaults.Orgs...)
	}
	switch {
	case req.Start == "" && req.End == "":
		req.Start, req.End = domain.DefaultRange(p.defaults.Days)
	case req.End == "":
		req.End = domain.Today()
	case req.Start == "":
		end, err := domain.ParseDate(req.End)
		if err != nil {
			return req, err
		}
		req.Start = domain.DateKey(end.AddDate(0, 0, -(p.defaults.Days - 1)))
	}

	if err := domain.ValidateIdentifier(req.Username); err != nil {
		return req, err
	}
	from, to, err := domain.ParseDateRange(req.Start, req.End)
	if err != nil {
		return req, err
	}
	if days := domain.DaysBetween(from, to); days > MaxRangeDays {
		return req, domain.NewValidationError("resolve request",
			fmt.Errorf("range of %d days exceeds the maximum of %d", days, MaxRangeDays))
	}
	return req, nil
}

// fetched holds the settled results of the concurrent fetch stage.
type fetched struct {
	user       []domain.RawEvent
	orgs       domain.FetchOutcome
	weather    domain.WeatherSeries
	weatherErr error
	orgsErr    error
}

// Analyze runs a complete analysis. Only an invalid request or a failed user
// fetch is an error; baseline and weather failures degrade the report.
func (p *Pipeline) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Report, error) {
	start := time.Now()

	req, err := p.Resolve(req)
	if err != nil {
		p.metrics.Analyses.WithLabelValues("error").Inc()
		return domain.Report{}, err
	}

	in, err := p.fetch(ctx, req)
	if err != nil {
		p.metrics.Analyses.WithLabelValues("error").Inc()
		p.logger.Error("analysis failed", "user", req.Username, "error", err)
		return domain.Report{}, err
	}

	report := p.build(req, in)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, report); err != nil {
			p.metrics.ReportsPublished.WithLabelValues("error").Inc()
			p.logger.Warn("report publish failed", "run_id", report.RunID, "error", err)
		} else {
			p.metrics.ReportsPublished.WithLabelValues("success").Inc()
		}
	}

	p.metrics.Analyses.WithLabelValues("success").Inc()
	p.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("analysis complete",
		"run_id", report.RunID,
		"user", req.Username,
		"days", len(report.Series),
		"insights", len(report.Insights),
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) fetch(ctx context.Context, req domain.AnalysisRequest) (fetched, error) {
	var in fetched
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := p.fetcher.FetchUserEvents(gctx, req.Username)
		if err != nil {
			return fmt.Errorf("fetch user %s: %w", req.Username, err)
		}
		in.user = events
		return nil
	})

	in.orgs = domain.NewFetchOutcome(nil, nil)
	if len(req.Orgs) > 0 {
		g.Go(func() error {
			in.orgs, in.orgsErr = p.fetcher.FetchMultipleOrgEvents(gctx, req.Orgs)
			return nil
		})
	}

	g.Go(func() error {
		in.weather, in.weatherErr = p.fetcher.FetchWeatherData(gctx, req.Start, req.End)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fetched{}, err
	}
	return in, nil
}

func (p *Pipeline) build(req domain.AnalysisRequest, in fetched) domain.Report {
	var warnings, notes []string

	userAgg := processing.AggregateUserData(req.Username, in.user)
	warnings = append(warnings, userAgg.Warnings...)
	user := p.dailySeries(userAgg.Points, req)

	var baseline []domain.DailyPoint
	if in.orgsErr != nil {
		p.logger.Warn("baseline unavailable", "orgs", req.Orgs, "error", in.orgsErr)
	}
	if in.orgs.SuccessCount > 0 {
		orgAgg := processing.AggregateOrgData(in.orgs.ResultsBySource, in.orgs.ErrorsBySource)
		warnings = append(warnings, orgAgg.Warnings...)
		baseline = p.dailySeries(orgAgg.Points, req)
		for i := range baseline {
			baseline[i].Source = domain.SourceBaseline
		}
	}

	// User and baseline share one peak so their scores are comparable.
	peak := processing.Peak(user, baseline)
	user = processing.NormalizeToActivityScore(user, peak)
	if baseline != nil {
		baseline = processing.NormalizeToActivityScore(baseline, peak)
	}

	var observations []domain.WeatherObservation
	if in.weatherErr != nil {
		p.logger.Warn("weather unavailable", "start", req.Start, "end", req.End, "error", in.weatherErr)
		notes = append(notes, "weather unavailable: "+in.weatherErr.Error())
	} else {
		var weatherWarnings []string
		observations, weatherWarnings = processing.WeatherObservations(in.weather)
		warnings = append(warnings, weatherWarnings...)
	}
	series := processing.SynchronizeActivityAndWeather(user, observations)

	if len(warnings) > 0 {
		p.metrics.AggregationWarnings.Add(float64(len(warnings)))
	}

	fetchSummary := in.orgs.Summary()
	analysis, found := p.generator.Generate(insights.Bundle{
		User:     user,
		Baseline: baseline,
		Series:   series,
		Fetch:    fetchSummary,
		Warnings: warnings,
	})
	for _, ins := range found {
		p.metrics.InsightsGenerated.WithLabelValues(string(ins.Category)).Inc()
	}

	return domain.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  domain.Now(),
		Request:      req,
		Series:       series,
		Baseline:     baseline,
		Correlations: analysis.Correlations,
		Performance:  analysis.Performance,
		Weather:      analysis.Weather,
		Trend:        analysis.Trend,
		Insights:     found,
		Fetch:        fetchSummary,
		Warnings:     append(notes, warnings...),
	}
}

// dailySeries restricts points to the request range and fills gaps. Scores
// are left unscaled.
func (p *Pipeline) dailySeries(points []domain.DailyPoint, req domain.AnalysisRequest) []domain.DailyPoint {
	filled, err := processing.FillMissingDates(processing.FilterRange(points, req.Start, req.End), req.Start, req.End)
	if err != nil {
		// The range was validated in Resolve.
		p.logger.Error("fill missing dates", "error", err)
		return nil
	}
	return filled
}
