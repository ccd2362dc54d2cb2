package domain

import (
	"encoding/json"
	"sort"
)

// FetchOutcome is the settled result of a multi-source fetch.
type FetchOutcome struct {
	ResultsBySource map[string][]RawEvent
	ErrorsBySource  map[string]error
	SuccessCount    int
	ErrorCount      int
	HasPartialData  bool
	IsComplete      bool
}

// NewFetchOutcome derives the counters and flags from the two maps.
func NewFetchOutcome(results map[string][]RawEvent, errs map[string]error) FetchOutcome {
	if results == nil {
		results = map[string][]RawEvent{}
	}
	if errs == nil {
		errs = map[string]error{}
	}
	o := FetchOutcome{
		ResultsBySource: results,
		ErrorsBySource:  errs,
		SuccessCount:    len(results),
		ErrorCount:      len(errs),
	}
	o.HasPartialData = o.SuccessCount > 0 && o.ErrorCount > 0
	o.IsComplete = o.SuccessCount > 0 && o.ErrorCount == 0
	return o
}

// Sources returns the names of the sources that succeeded, sorted.
func (o FetchOutcome) Sources() []string {
	names := make([]string, 0, len(o.ResultsBySource))
	for name := range o.ResultsBySource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrorMessages returns per-source error strings.
func (o FetchOutcome) ErrorMessages() map[string]string {
	msgs := make(map[string]string, len(o.ErrorsBySource))
	for name, err := range o.ErrorsBySource {
		msgs[name] = err.Error()
	}
	return msgs
}

// FetchSummary is the serializable view of a FetchOutcome.
type FetchSummary struct {
	Sources        []string          `json:"sources"`
	Errors         map[string]string `json:"errors,omitempty"`
	SuccessCount   int               `json:"successCount"`
	ErrorCount     int               `json:"errorCount"`
	HasPartialData bool              `json:"hasPartialData"`
	IsComplete     bool              `json:"isComplete"`
}

// Summary drops the raw events and stringifies errors.
func (o FetchOutcome) Summary() FetchSummary {
	return FetchSummary{
		Sources:        o.Sources(),
		Errors:         o.ErrorMessages(),
		SuccessCount:   o.SuccessCount,
		ErrorCount:     o.ErrorCount,
		HasPartialData: o.HasPartialData,
		IsComplete:     o.IsComplete,
	}
}

func (o FetchOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Summary())
}
