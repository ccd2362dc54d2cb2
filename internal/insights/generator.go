package insights

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// outperformFrequent is the share of days (percent) above baseline that earns
// the "frequent winner" insight.
const outperformFrequent = 60.0

// sparseCoverage is the share of active days below which data is flagged as sparse.
const sparseCoverage = 0.3

// peakShare is the share of days above the baseline's 90th percentile that
// earns the "peak days" insight.
const peakShare = 0.2

// Bundle is everything the generator needs for one analysis. Series is the
// user's synchronized activity; User and Baseline are the normalized daily
// series over the requested range.
type Bundle struct {
	User     []domain.DailyPoint
	Baseline []domain.DailyPoint
	Series   []domain.SynchronizedPoint
	Fetch    domain.FetchSummary
	Warnings []string
}

// Analysis holds the statistics insights are derived from.
type Analysis struct {
	Performance  domain.PerformanceAnalysis
	Weather      domain.WeatherAnalysis
	Trend        domain.TrendAnalysis
	Correlations map[string]domain.CorrelationResult
}

// Analyze computes every statistic for the bundle.
func Analyze(b Bundle) Analysis {
	a := Analysis{
		Performance:  CalculateRelativePerformance(b.User, b.Baseline),
		Weather:      FindWeatherCorrelations(b.Series),
		Trend:        AnalyzeTrend(b.User),
		Correlations: make(map[string]domain.CorrelationResult),
	}
	if a.Weather.HasEnoughData {
		a.Correlations["temperature"] = a.Weather.Temperature
		a.Correlations["rainfall"] = a.Weather.Rainfall
	}
	if u, base := overlap(b.User, b.Baseline); len(u) >= MinPerformancePoints {
		a.Correlations["baseline"] = Correlate(u, base)
	}
	return a
}

type subGenerator struct {
	name string
	run  func(Bundle, Analysis) []domain.Insight
}

// Generator turns analysis results into a ranked list of insights.
type Generator struct {
	logger *slog.Logger
	subs   []subGenerator
}

// NewGenerator creates a Generator with the standard set of sub-generators.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{
		logger: logger,
		subs: []subGenerator{
			{"performance", performanceInsights},
			{"weather", weatherInsights},
			{"comparison", comparisonInsights},
			{"trend", trendInsights},
			{"data_quality", dataQualityInsights},
		},
	}
}

// Generate analyses the bundle and returns the statistics together with the
// insights sorted by descending confidence. A panic anywhere in analysis is
// recovered and reported as a single low-confidence error insight.
func (g *Generator) Generate(b Bundle) (analysis Analysis, out []domain.Insight) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("insight generation failed", "error", r)
			out = []domain.Insight{fallbackInsight(r)}
		}
	}()

	analysis = Analyze(b)
	for _, sub := range g.subs {
		found := sub.run(b, analysis)
		g.logger.Debug("insights generated", "generator", sub.name, "count", len(found))
		out = append(out, found...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return analysis, out
}

func fallbackInsight(cause any) domain.Insight {
	return domain.NewInsight(domain.CategoryError, domain.ToneNeutral,
		"Analysis error",
		fmt.Sprintf("Insights could not be generated for this range: %v", cause),
		0.1, 0)
}

// sampleConfidence grows with the number of observations and saturates at 0.9.
func sampleConfidence(n int) float64 {
	return math.Min(0.9, 0.4+0.02*float64(n))
}

func performanceInsights(_ Bundle, a Analysis) []domain.Insight {
	p := a.Performance
	if !p.HasEnoughData {
		return nil
	}
	conf := sampleConfidence(p.DataPoints)

	var out []domain.Insight
	switch p.Category {
	case domain.PerformanceOutperforming:
		out = append(out, domain.NewInsight(domain.CategoryPerformance, domain.TonePositive,
			"Above baseline",
			fmt.Sprintf("Your average activity is %.0f%% above the baseline across %d days.", p.PercentageDelta, p.DataPoints),
			conf, p.DataPoints))
	case domain.PerformanceMatching:
		out = append(out, domain.NewInsight(domain.CategoryPerformance, domain.ToneNeutral,
			"In line with baseline",
			fmt.Sprintf("Your average activity is within %.0f%% of the baseline across %d days.", math.Abs(p.PercentageDelta), p.DataPoints),
			conf, p.DataPoints))
	default:
		out = append(out, domain.NewInsight(domain.CategoryPerformance, domain.ToneConcern,
			"Below baseline",
			fmt.Sprintf("Your average activity is %.0f%% below the baseline across %d days.", math.Abs(p.PercentageDelta), p.DataPoints),
			conf, p.DataPoints))
	}

	if p.OutperformPercent >= outperformFrequent {
		out = append(out, domain.NewInsight(domain.CategoryPerformance, domain.TonePositive,
			"Frequent winner",
			fmt.Sprintf("You beat the baseline on %d of %d days (%.0f%%).", p.OutperformDays, p.DataPoints, p.OutperformPercent),
			conf*0.95, p.DataPoints))
	}

	if p.PeakDays > 0 && float64(p.PeakDays)/float64(p.DataPoints) >= peakShare {
		out = append(out, domain.NewInsight(domain.CategoryPerformance, domain.TonePositive,
			"Peak days",
			fmt.Sprintf("On %d of %d days your activity was above the baseline's 90th percentile.", p.PeakDays, p.DataPoints),
			conf*0.9, p.PeakDays))
	}
	return out
}

func weatherInsights(_ Bundle, a Analysis) []domain.Insight {
	w := a.Weather
	if !w.HasEnoughData {
		return nil
	}

	var out []domain.Insight
	for _, c := range []struct {
		factor string
		result domain.CorrelationResult
	}{
		{"temperature", w.Temperature},
		{"rainfall", w.Rainfall},
	} {
		if !c.result.IsSignificant {
			continue
		}
		direction := "rises"
		if c.result.Coefficient < 0 {
			direction = "falls"
		}
		out = append(out, domain.NewInsight(domain.CategoryWeather, domain.ToneNeutral,
			fmt.Sprintf("%s correlation with %s", titleCase(string(c.result.Strength)), c.factor),
			fmt.Sprintf("Your activity %s as %s increases (r = %.2f over %d days).", direction, c.factor, c.result.Coefficient, c.result.SampleSize),
			math.Min(sampleConfidence(c.result.SampleSize), 0.3+math.Abs(c.result.Coefficient)*0.6), c.result.SampleSize))
	}

	if opt := w.Optimal; opt != nil {
		out = append(out, domain.NewInsight(domain.CategoryWeather, domain.TonePositive,
			"Optimal conditions",
			fmt.Sprintf("You are most active on %s days (average score %.0f over %d days).",
				strings.ReplaceAll(string(opt.Conditions), "_", " "), opt.AverageScore, opt.Days),
			sampleConfidence(opt.Days)*0.8, opt.Days))
	}
	return out
}

func comparisonInsights(_ Bundle, a Analysis) []domain.Insight {
	p := a.Performance
	if !p.HasEnoughData {
		return nil
	}
	conf := sampleConfidence(p.DataPoints) * 0.9

	tone := domain.ToneNeutral
	switch {
	case p.PercentileRank >= 75:
		tone = domain.TonePositive
	case p.PercentileRank <= 25:
		tone = domain.ToneConcern
	}
	out := []domain.Insight{domain.NewInsight(domain.CategoryComparison, tone,
		"Baseline percentile",
		fmt.Sprintf("Your average daily score ranks at the %.0fth percentile of baseline days.", p.PercentileRank),
		conf, p.DataPoints)}

	switch delta := p.UserConsistency - p.BaselineConsistency; {
	case delta >= 0.1:
		out = append(out, domain.NewInsight(domain.CategoryComparison, domain.TonePositive,
			"More consistent than baseline",
			fmt.Sprintf("Your consistency score is %.2f against the baseline's %.2f.", p.UserConsistency, p.BaselineConsistency),
			conf*0.9, p.DataPoints))
	case delta <= -0.1:
		out = append(out, domain.NewInsight(domain.CategoryComparison, domain.ToneConcern,
			"Less consistent than baseline",
			fmt.Sprintf("Your consistency score is %.2f against the baseline's %.2f.", p.UserConsistency, p.BaselineConsistency),
			conf*0.9, p.DataPoints))
	}
	return out
}

func trendInsights(_ Bundle, a Analysis) []domain.Insight {
	t := a.Trend
	if !t.HasEnoughData {
		return nil
	}
	conf := sampleConfidence(t.DataPoints)

	var out []domain.Insight
	switch t.Direction {
	case domain.TonePositive:
		out = append(out, domain.NewInsight(domain.CategoryTrend, domain.TonePositive,
			"Growing activity",
			fmt.Sprintf("Activity grew %.0f%% from the first half of the range to the second.", t.GrowthRate),
			conf, t.DataPoints))
	case domain.ToneConcern:
		out = append(out, domain.NewInsight(domain.CategoryTrend, domain.ToneConcern,
			"Declining activity",
			fmt.Sprintf("Activity fell %.0f%% from the first half of the range to the second.", math.Abs(t.GrowthRate)),
			conf, t.DataPoints))
	default:
		out = append(out, domain.NewInsight(domain.CategoryTrend, domain.ToneNeutral,
			"Steady activity",
			fmt.Sprintf("Activity changed %.0f%% between the two halves of the range.", t.GrowthRate),
			conf*0.8, t.DataPoints))
	}

	switch {
	case t.Volatility < stableVolatile:
		out = append(out, domain.NewInsight(domain.CategoryTrend, domain.TonePositive,
			"Stable rhythm",
			fmt.Sprintf("Day-to-day variation is low (%.0f%%).", t.Volatility),
			conf*0.85, t.DataPoints))
	case t.Volatility > erraticVolatile:
		out = append(out, domain.NewInsight(domain.CategoryTrend, domain.ToneConcern,
			"Irregular activity",
			fmt.Sprintf("Day-to-day variation is high (%.0f%%).", t.Volatility),
			conf*0.85, t.DataPoints))
	}

	if t.Momentum != 0 {
		tone, verb := domain.TonePositive, "up"
		if t.Momentum < 0 {
			tone, verb = domain.ToneConcern, "down"
		}
		out = append(out, domain.NewInsight(domain.CategoryTrend, tone,
			"Recent momentum",
			fmt.Sprintf("Your last week is %s %.1f points on the week before.", verb, math.Abs(t.Momentum)),
			conf*0.7, min(t.DataPoints, 2*momentumWindow)))
	}
	return out
}

func dataQualityInsights(b Bundle, _ Analysis) []domain.Insight {
	var out []domain.Insight

	if days := len(b.User); days > 0 {
		active := 0
		for _, p := range b.User {
			if p.Commits > 0 {
				active++
			}
		}
		switch coverage := float64(active) / float64(days); {
		case active == 0:
			out = append(out, domain.NewInsight(domain.CategoryDataQuality, domain.ToneConcern,
				"No activity found",
				fmt.Sprintf("No push activity was found in the %d days analysed.", days),
				0.6, days))
		case coverage < sparseCoverage:
			out = append(out, domain.NewInsight(domain.CategoryDataQuality, domain.ToneNeutral,
				"Sparse activity",
				fmt.Sprintf("Push activity was found on only %d of %d days, so comparisons are less reliable.", active, days),
				0.5, days))
		}
	}

	if b.Fetch.ErrorCount > 0 {
		failed := make([]string, 0, len(b.Fetch.Errors))
		for name := range b.Fetch.Errors {
			failed = append(failed, name)
		}
		sort.Strings(failed)

		title, tone := "Partial baseline", domain.ToneNeutral
		if b.Fetch.SuccessCount == 0 {
			title, tone = "No baseline", domain.ToneConcern
		}
		out = append(out, domain.NewInsight(domain.CategoryDataQuality, tone,
			title,
			fmt.Sprintf("Baseline data could not be fetched for %s; %d of %d organizations were used.",
				strings.Join(failed, ", "), b.Fetch.SuccessCount, b.Fetch.SuccessCount+b.Fetch.ErrorCount),
			0.5, b.Fetch.SuccessCount))
	}

	if n := len(b.Warnings); n > 0 {
		out = append(out, domain.NewInsight(domain.CategoryDataQuality, domain.ToneNeutral,
			"Skipped records",
			fmt.Sprintf("%d malformed records were skipped while preparing the data.", n),
			0.3, n))
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
