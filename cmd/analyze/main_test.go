package main

import (
	"bytes"
	"encoding/json"
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/activity-insights-service/internal/config"
	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() domain.Report {
	return domain.Report{
		RunID:   "run-1",
		Request: domain.AnalysisRequest{Username: "octocat", Start: "2024-03-01", End: "2024-03-03"},
		Series: []domain.SynchronizedPoint{
			{DailyPoint: domain.NewDailyPoint("2024-03-01", 4, 2, 100, domain.SourceUser)},
			{DailyPoint: domain.EmptyPoint("2024-03-02", domain.SourceUser)},
			{DailyPoint: domain.NewDailyPoint("2024-03-03", 2, 1, 50, domain.SourceUser)},
		},
		Performance: domain.PerformanceAnalysis{HasEnoughData: true, Ratio: 1.5, Category: domain.PerformanceOutperforming},
		Fetch:       domain.FetchSummary{Sources: []string{"golang"}, SuccessCount: 1, ErrorCount: 1},
		Insights: []domain.Insight{
			domain.NewInsight(domain.CategoryPerformance, domain.TonePositive, "Above baseline", "You pushed 50% more than the baseline.", 0.8, 3),
		},
		Warnings: []string{"weather unavailable: timeout"},
	}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	printReport(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Activity insights for octocat (2024-03-01 to 2024-03-03)")
	assert.Contains(t, out, "Days analysed:  3 (2 active)")
	assert.Contains(t, out, "Total commits:  6")
	assert.Contains(t, out, "Baseline orgs:  golang (1 failed)")
	assert.Contains(t, out, "Relative score: 1.50x baseline (outperforming)")
	assert.Contains(t, out, "[ 80%] Above baseline")
	assert.Contains(t, out, "You pushed 50% more than the baseline.")
	assert.Contains(t, out, "warning: weather unavailable: timeout")
	assert.NotContains(t, out, "Trend:")
}

func TestPrintReport_NoInsights(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	printReport(&buf, domain.Report{Request: domain.AnalysisRequest{Username: "octocat"}})

	assert.Contains(t, buf.String(), "No insights for this range.")
	assert.NotContains(t, buf.String(), "Baseline orgs")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleReport()))

	var decoded domain.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Series, 3)
}

func TestApp_RequiresUsername(t *testing.T) {
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf

	require.NoError(t, app.Run([]string{"analyze"}))
	assert.Contains(t, buf.String(), "<username>")
}

func TestApp_Flags(t *testing.T) {
	app := newApp()
	names := map[string]bool{}
	for _, f := range app.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, want := range []string{"token", "orgs", "start", "end", "json", "verbose"} {
		assert.True(t, names[want], want)
	}
}

func TestNewCLILogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", LogFormat: "json"}
	ctx := context.Background()

	var quiet bytes.Buffer
	logger := newCLILogger(&quiet, cfg, false)
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
	logger.Error("fetch failed", "source", "events")
	assert.Contains(t, quiet.String(), "msg=\"fetch failed\"")

	var verbose bytes.Buffer
	assert.True(t, newCLILogger(&verbose, cfg, true).Enabled(ctx, slog.LevelDebug))
	assert.Equal(t, "info", cfg.LogLevel, "caller config is not modified")
}
