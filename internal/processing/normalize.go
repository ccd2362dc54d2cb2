package processing

import "github.com/couchcryptid/activity-insights-service/internal/domain"

// AutoMax asks NormalizeToActivityScore to scale against the series' own peak.
const AutoMax = 0

// NormalizeToActivityScore linearly maps each point's magnitude onto
// [0, 100]. The magnitude is the commit count until a point has been scaled,
// and its activity score afterwards, so re-scaling normalized output with
// maxValue 100 leaves it unchanged. A maxValue <= 0 resolves to the series
// peak. When the resolved maximum is 0 every score is 0. The input slice is
// not modified.
func NormalizeToActivityScore(series []domain.DailyPoint, maxValue float64) []domain.DailyPoint {
	resolved := maxValue
	if resolved <= 0 {
		resolved = Peak(series)
	}

	out := make([]domain.DailyPoint, len(series))
	for i, p := range series {
		score := 0.0
		if resolved > 0 {
			score = magnitude(p) / resolved * 100
		}
		p.ActivityScore = domain.ClampScore(score)
		p.Scaled = true
		out[i] = p
	}
	return out
}

// Peak returns the largest magnitude across all given series. Series that
// share a peak are normalized onto a common scale.
func Peak(series ...[]domain.DailyPoint) float64 {
	peak := 0.0
	for _, s := range series {
		for _, p := range s {
			peak = max(peak, magnitude(p))
		}
	}
	return peak
}

func magnitude(p domain.DailyPoint) float64 {
	if p.Scaled {
		return p.ActivityScore
	}
	return float64(p.Commits)
}
