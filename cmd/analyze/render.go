package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgHiCyan, color.Bold)
	labelColor   = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	toneColors   = map[domain.Tone]*color.Color{
		domain.TonePositive: color.New(color.FgHiGreen),
		domain.ToneNeutral:  color.New(color.FgCyan),
		domain.ToneConcern:  color.New(color.FgHiRed),
	}
)

// printReport writes a human-readable summary of a report.
func printReport(w io.Writer, r domain.Report) {
	headerColor.Fprintf(w, "Activity insights for %s (%s to %s)\n", r.Request.Username, r.Request.Start, r.Request.End)
	fmt.Fprintln(w)

	commits, active := 0, 0
	for _, p := range r.Series {
		commits += p.Commits
		if p.Commits > 0 {
			active++
		}
	}
	labelColor.Fprintf(w, "Days analysed:  %d (%d active)\n", len(r.Series), active)
	labelColor.Fprintf(w, "Total commits:  %d\n", commits)
	if len(r.Fetch.Sources) > 0 || r.Fetch.ErrorCount > 0 {
		labelColor.Fprintf(w, "Baseline orgs:  %s", strings.Join(r.Fetch.Sources, ", "))
		if r.Fetch.ErrorCount > 0 {
			warningColor.Fprintf(w, " (%d failed)", r.Fetch.ErrorCount)
		}
		fmt.Fprintln(w)
	}
	if r.Performance.HasEnoughData {
		labelColor.Fprintf(w, "Relative score: %.2fx baseline (%s)\n", r.Performance.Ratio, r.Performance.Category)
	}
	if r.Trend.HasEnoughData {
		labelColor.Fprintf(w, "Trend:          %+.1f%% growth, %.1f%% volatility\n", r.Trend.GrowthRate, r.Trend.Volatility)
	}
	fmt.Fprintln(w)

	if len(r.Insights) == 0 {
		fmt.Fprintln(w, "No insights for this range.")
	}
	for _, ins := range r.Insights {
		c, ok := toneColors[ins.Tone]
		if !ok {
			c = toneColors[domain.ToneNeutral]
		}
		c.Fprintf(w, "[%3.0f%%] %s\n", ins.Confidence*100, ins.Title)
		fmt.Fprintf(w, "       %s\n", ins.Message)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range r.Warnings {
			warningColor.Fprintf(w, "warning: %s\n", warn)
		}
	}
}
