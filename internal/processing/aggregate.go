// Package processing turns fetched events and weather into date-keyed daily
// series: aggregation, normalization, gap filling and weather synchronization.
// All functions are pure; malformed records are skipped and reported as
// warnings instead of failing the batch.
package processing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// AggregateResult is the output of AggregateOrgData. SourceErrors is non-empty
// when at least one source failed to fetch.
type AggregateResult struct {
	Points       []domain.DailyPoint `json:"points"`
	SourceErrors []string            `json:"sourceErrors,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// HasErrors reports whether any source failed.
func (r AggregateResult) HasErrors() bool { return len(r.SourceErrors) > 0 }

type dayAccumulator struct {
	commits int
	events  int
	sources map[string]struct{}
}

// AggregateOrgData merges push events from several sources into one daily
// series tagged as baseline. Sources are processed in name order so warnings
// are deterministic; the totals do not depend on order.
func AggregateOrgData(eventsBySource map[string][]domain.RawEvent, errorsBySource map[string]error) AggregateResult {
	return aggregate(eventsBySource, errorsBySource, domain.SourceBaseline)
}

// AggregateUserData builds a user's daily series from their events.
func AggregateUserData(username string, events []domain.RawEvent) AggregateResult {
	return aggregate(map[string][]domain.RawEvent{username: events}, nil, domain.SourceUser)
}

func aggregate(eventsBySource map[string][]domain.RawEvent, errorsBySource map[string]error, tag domain.PointSource) AggregateResult {
	var result AggregateResult
	days := make(map[string]*dayAccumulator)

	for _, source := range sortedKeys(eventsBySource) {
		for i, ev := range eventsBySource[source] {
			if !ev.IsPush() {
				continue
			}
			if err := checkEvent(ev); err != nil {
				aggErr := domain.NewAggregationError(source, fmt.Errorf("item %d: %w", i, err))
				result.Warnings = append(result.Warnings, aggErr.Error())
				continue
			}

			key := domain.DateKey(ev.CreatedAt)
			acc, ok := days[key]
			if !ok {
				acc = &dayAccumulator{sources: make(map[string]struct{})}
				days[key] = acc
			}
			acc.commits += ev.CommitCount
			acc.events++
			acc.sources[source] = struct{}{}
		}
	}

	for _, source := range sortedKeys(errorsBySource) {
		if err := errorsBySource[source]; err != nil {
			result.SourceErrors = append(result.SourceErrors, fmt.Sprintf("%s: %v", source, err))
		}
	}

	result.Points = make([]domain.DailyPoint, 0, len(days))
	for date, acc := range days {
		p := domain.NewDailyPoint(date, acc.commits, acc.events, 0, tag)
		p.Contributors = len(acc.sources)
		result.Points = append(result.Points, p)
	}
	SortByDate(result.Points)
	return result
}

func checkEvent(ev domain.RawEvent) error {
	if ev.CreatedAt.IsZero() {
		return errors.New("missing or unparseable timestamp")
	}
	if ev.CommitCount < 0 {
		return fmt.Errorf("negative commit count %d", ev.CommitCount)
	}
	return nil
}

// SortByDate orders points chronologically in place.
func SortByDate(points []domain.DailyPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
}

func sortSynchronized(points []domain.SynchronizedPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
