package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
)

// DefaultBaseURL is the Open-Meteo historical weather API.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

const dailyVariables = "temperature_2m_max,precipitation_sum"

// Location is the point weather is fetched for.
type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Key identifies the location in cache keys and logs.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f@%s", l.Latitude, l.Longitude, l.Timezone)
}

// Client implements fetch.WeatherSource using the Open-Meteo archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	location   Location
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client for a fixed location. An empty
// baseURL uses DefaultBaseURL. Request deadlines come from the caller's
// context; timeout is a backstop for callers without one.
func NewClient(baseURL string, location Location, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if location.Timezone == "" {
		location.Timezone = "UTC"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		location: location,
		logger:   logger,
	}
}

// Location returns the location the client fetches weather for.
func (c *Client) Location() Location { return c.location }

// DailyWeather returns daily maximum temperature and precipitation for the
// inclusive date range [start, end].
func (c *Client) DailyWeather(ctx context.Context, start, end string) (domain.WeatherSeries, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(c.location.Latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(c.location.Longitude, 'f', -1, 64)},
		"start_date": {start},
		"end_date":   {end},
		"daily":      {dailyVariables},
		"timezone":   {c.location.Timezone},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherSeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSeries{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.WeatherSeries{}, &domain.StatusError{StatusCode: resp.StatusCode, Message: errorReason(body)}
	}

	var archive response
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return domain.WeatherSeries{}, domain.NewValidationError("decode weather", fmt.Errorf("decode response: %w", err))
	}
	if archive.Daily == nil || archive.Daily.Time == nil {
		return domain.WeatherSeries{}, domain.NewValidationError("decode weather", errors.New("response has no daily time array"))
	}

	d := archive.Daily
	if len(d.TemperatureMax) != len(d.Time) || len(d.PrecipitationSum) != len(d.Time) {
		c.logger.Warn("weather arrays have mismatched lengths",
			"time", len(d.Time), "temperature", len(d.TemperatureMax), "precipitation", len(d.PrecipitationSum))
	}

	return domain.WeatherSeries{
		Time:             d.Time,
		TemperatureMax:   d.TemperatureMax,
		PrecipitationSum: d.PrecipitationSum,
	}, nil
}

func errorReason(body []byte) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &e) == nil && e.Reason != "" {
		return e.Reason
	}
	return string(body)
}

// Open-Meteo API response types.

type response struct {
	Daily *daily `json:"daily"`
}

type daily struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}
