package processing

import (
	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// FillMissingDates returns exactly one point per calendar day in [start, end].
// Existing points are kept, other days get a zero-valued placeholder tagged
// with the series' source (user when the series is empty). Points outside the
// range are dropped.
func FillMissingDates(series []domain.DailyPoint, start, end string) ([]domain.DailyPoint, error) {
	from, to, err := domain.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	var tag domain.PointSource
	byDate := make(map[string]domain.DailyPoint, len(series))
	for _, p := range series {
		if tag == "" && p.Source != "" {
			tag = p.Source
		}
		if _, dup := byDate[p.Date]; !dup {
			byDate[p.Date] = p
		}
	}
	if tag == "" {
		tag = domain.SourceUser
	}

	out := make([]domain.DailyPoint, 0, domain.DaysBetween(from, to))
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := domain.DateKey(day)
		if p, ok := byDate[key]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, domain.EmptyPoint(key, tag))
	}
	return out, nil
}

// FilterRange keeps the points whose date falls in [start, end].
func FilterRange(series []domain.DailyPoint, start, end string) []domain.DailyPoint {
	out := make([]domain.DailyPoint, 0, len(series))
	for _, p := range series {
		if p.Date >= start && p.Date <= end {
			out = append(out, p)
		}
	}
	return out
}
