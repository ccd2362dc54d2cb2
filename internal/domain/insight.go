package domain

// CorrelationStrength is a qualitative bucket of |r|.
type CorrelationStrength string

const (
	StrengthNegligible CorrelationStrength = "negligible"
	StrengthWeak       CorrelationStrength = "weak"
	StrengthModerate   CorrelationStrength = "moderate"
	StrengthStrong     CorrelationStrength = "strong"
)

// CorrelationResult describes a Pearson correlation between two series.
type CorrelationResult struct {
	Coefficient   float64             `json:"coefficient"`
	Strength      CorrelationStrength `json:"strength"`
	IsSignificant bool                `json:"isSignificant"`
	SampleSize    int                 `json:"sampleSize"`
}

// InsightCategory groups insights for presentation.
type InsightCategory string

const (
	CategoryPerformance InsightCategory = "performance"
	CategoryWeather     InsightCategory = "weather"
	CategoryComparison  InsightCategory = "comparison"
	CategoryTrend       InsightCategory = "trend"
	CategoryDataQuality InsightCategory = "data_quality"
	CategoryError       InsightCategory = "error"
)

// Tone says whether an insight is good news, bad news, or neither.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneConcern  Tone = "concern"
)

// Insight is a single human-readable finding.
type Insight struct {
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Confidence float64         `json:"confidence"`
	Category   InsightCategory `json:"category"`
	Tone       Tone            `json:"tone"`
	DataPoints int             `json:"dataPoints"`
}

// NewInsight builds an insight with confidence clamped to [0, 1].
func NewInsight(category InsightCategory, tone Tone, title, message string, confidence float64, dataPoints int) Insight {
	switch {
	case confidence != confidence, confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return Insight{
		Title:      title,
		Message:    message,
		Confidence: confidence,
		Category:   category,
		Tone:       tone,
		DataPoints: max(dataPoints, 0),
	}
}
