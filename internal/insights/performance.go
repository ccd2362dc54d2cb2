package insights

import (
	"fmt"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

const (
	// MinPerformancePoints is the number of overlapping days needed to compare a
	// user with the baseline.
	MinPerformancePoints = 5

	outperformRatio = 1.15
	matchingRatio   = 0.85

	peakPercentile = 90
)

// CategorizeRatio maps a user/baseline mean ratio to a performance category.
func CategorizeRatio(ratio float64) domain.PerformanceCategory {
	switch {
	case ratio >= outperformRatio:
		return domain.PerformanceOutperforming
	case ratio >= matchingRatio:
		return domain.PerformanceMatching
	default:
		return domain.PerformanceUnderperforming
	}
}

// PerformanceRatio returns the ratio of the user's mean score to the
// baseline's mean score over the dates both series share, and its category.
// ok is false when there is no overlap or the baseline mean is 0.
func PerformanceRatio(user, baseline []domain.DailyPoint) (ratio float64, category domain.PerformanceCategory, ok bool) {
	u, b := overlap(user, baseline)
	bm := Mean(b)
	if len(u) == 0 || bm == 0 {
		return 0, "", false
	}
	ratio = Mean(u) / bm
	return ratio, CategorizeRatio(ratio), true
}

// CalculateRelativePerformance compares the user's activity scores with the
// baseline's over the dates both series share. Fewer than
// MinPerformancePoints shared dates, or an all-zero baseline, yields
// HasEnoughData=false with an explanatory message.
func CalculateRelativePerformance(user, baseline []domain.DailyPoint) domain.PerformanceAnalysis {
	u, b := overlap(user, baseline)
	n := len(u)
	if n < MinPerformancePoints {
		return domain.PerformanceAnalysis{
			DataPoints: n,
			Message: fmt.Sprintf("need at least %d overlapping days to compare with the baseline, have %d",
				MinPerformancePoints, n),
		}
	}

	um, bm := Mean(u), Mean(b)
	if bm == 0 {
		return domain.PerformanceAnalysis{
			DataPoints: n,
			UserMean:   um,
			Message:    "baseline had no activity in the selected range",
		}
	}

	wins, peaks := 0, 0
	peak := CalculatePercentile(b, peakPercentile)
	for i := range u {
		if u[i] > b[i] {
			wins++
		}
		if u[i] > peak {
			peaks++
		}
	}

	ratio := um / bm
	return domain.PerformanceAnalysis{
		HasEnoughData:       true,
		DataPoints:          n,
		Ratio:               ratio,
		PercentageDelta:     (ratio - 1) * 100,
		UserMean:            um,
		BaselineMean:        bm,
		UserConsistency:     CalculateConsistency(u),
		BaselineConsistency: CalculateConsistency(b),
		OutperformDays:      wins,
		OutperformPercent:   float64(wins) / float64(n) * 100,
		PercentileRank:      PercentileRank(b, um),
		PeakDays:            peaks,
		Category:            CategorizeRatio(ratio),
	}
}

// overlap returns the aligned scores of the dates present in both series, in
// user order. The first point wins when a date repeats.
func overlap(user, baseline []domain.DailyPoint) (u, b []float64) {
	base := make(map[string]float64, len(baseline))
	for _, p := range baseline {
		if _, dup := base[p.Date]; !dup {
			base[p.Date] = p.ActivityScore
		}
	}

	seen := make(map[string]struct{}, len(user))
	for _, p := range user {
		bs, ok := base[p.Date]
		if !ok {
			continue
		}
		if _, dup := seen[p.Date]; dup {
			continue
		}
		seen[p.Date] = struct{}{}
		u = append(u, p.ActivityScore)
		b = append(b, bs)
	}
	return u, b
}
