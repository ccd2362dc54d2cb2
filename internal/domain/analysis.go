package domain

import "time"

// PerformanceCategory buckets a user's activity relative to the baseline.
type PerformanceCategory string

const (
	PerformanceOutperforming   PerformanceCategory = "outperforming"
	PerformanceMatching        PerformanceCategory = "matching"
	PerformanceUnderperforming PerformanceCategory = "underperforming"
)

// PerformanceAnalysis compares a user series with a baseline series.
type PerformanceAnalysis struct {
	HasEnoughData       bool                `json:"hasEnoughData"`
	Message             string              `json:"message,omitempty"`
	DataPoints          int                 `json:"dataPoints"`
	Ratio               float64             `json:"ratio"`
	PercentageDelta     float64             `json:"percentageDelta"`
	UserMean            float64             `json:"userMean"`
	BaselineMean        float64             `json:"baselineMean"`
	UserConsistency     float64             `json:"userConsistency"`
	BaselineConsistency float64             `json:"baselineConsistency"`
	OutperformDays      int                 `json:"outperformDays"`
	OutperformPercent   float64             `json:"outperformPercent"`
	PercentileRank      float64             `json:"percentileRank"`
	PeakDays            int                 `json:"peakDays"` // user days above the baseline's 90th percentile
	Category            PerformanceCategory `json:"category,omitempty"`
}

// OptimalConditions is the weather bucket with the highest mean activity.
type OptimalConditions struct {
	Conditions   Conditions `json:"conditions"`
	AverageScore float64    `json:"averageScore"`
	Days         int        `json:"days"`
}

// WeatherAnalysis relates activity to weather.
type WeatherAnalysis struct {
	HasEnoughData   bool                   `json:"hasEnoughData"`
	Message         string                 `json:"message,omitempty"`
	DataPoints      int                    `json:"dataPoints"`
	Temperature     CorrelationResult      `json:"temperature"`
	Rainfall        CorrelationResult      `json:"rainfall"`
	AverageByBucket map[Conditions]float64 `json:"averageByBucket,omitempty"`
	Optimal         *OptimalConditions     `json:"optimal,omitempty"`
}

// TrendAnalysis describes the direction and stability of a series.
type TrendAnalysis struct {
	HasEnoughData bool    `json:"hasEnoughData"`
	Message       string  `json:"message,omitempty"`
	DataPoints    int     `json:"dataPoints"`
	GrowthRate    float64 `json:"growthRate"` // percent, second half vs first half
	Volatility    float64 `json:"volatility"` // coefficient of variation, percent
	Momentum      float64 `json:"momentum"`   // mean of last week minus mean of the week before
	Direction     Tone    `json:"direction"`
}

// AnalysisRequest identifies what to analyse.
type AnalysisRequest struct {
	Username string   `json:"username"`
	Orgs     []string `json:"orgs"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

// Report is everything one analysis produces.
type Report struct {
	RunID        string                       `json:"runId"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
	Request      AnalysisRequest              `json:"request"`
	Series       []SynchronizedPoint          `json:"series"`
	Baseline     []DailyPoint                 `json:"baseline"`
	Correlations map[string]CorrelationResult `json:"correlations"`
	Performance  PerformanceAnalysis          `json:"performance"`
	Weather      WeatherAnalysis              `json:"weather"`
	Trend        TrendAnalysis                `json:"trend"`
	Insights     []Insight                    `json:"insights"`
	Fetch        FetchSummary                 `json:"fetch"`
	Warnings     []string                     `json:"warnings,omitempty"`
}
