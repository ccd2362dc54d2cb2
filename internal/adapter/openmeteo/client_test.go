package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var berlin = Location{Latitude: 52.52, Longitude: 13.41, Timezone: "Europe/Berlin"}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		location:   berlin,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_DailyWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "52.52", q.Get("latitude"))
		assert.Equal(t, "13.41", q.Get("longitude"))
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-03", q.Get("end_date"))
		assert.Equal(t, "temperature_2m_max,precipitation_sum", q.Get("daily"))
		assert.Equal(t, "Europe/Berlin", q.Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["2024-01-01", "2024-01-02", "2024-01-03"],
				"temperature_2m_max": [4.2, null, 7.5],
				"precipitation_sum": [0.0, 3.1, null]
			}
		}`))
	}))
	defer srv.Close()

	series, err := testClient(srv.URL).DailyWeather(context.Background(), "2024-01-01", "2024-01-03")

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, series.Time)
	require.Len(t, series.TemperatureMax, 3)
	assert.InDelta(t, 4.2, *series.TemperatureMax[0], 1e-9)
	assert.Nil(t, series.TemperatureMax[1])
	assert.InDelta(t, 3.1, *series.PrecipitationSum[1], 1e-9)
	assert.Nil(t, series.PrecipitationSum[2])
}

func TestClient_DailyWeather_ErrorReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyWeather(context.Background(), "1800-01-01", "1800-01-02")

	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Parameter 'start_date' is out of allowed range", se.Message)
}

func TestClient_DailyWeather_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyWeather(context.Background(), "2024-01-01", "2024-01-02")

	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "upstream down", se.Message)
}

func TestClient_DailyWeather_MissingTimeArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"daily":{"temperature_2m_max":[1.0]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyWeather(context.Background(), "2024-01-01", "2024-01-01")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_DailyWeather_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyWeather(context.Background(), "2024-01-01", "2024-01-01")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_DailyWeather_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).DailyWeather(ctx, "2024-01-01", "2024-01-01")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", Location{Latitude: 1, Longitude: 2}, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, "UTC", c.Location().Timezone)
}

func TestLocation_Key(t *testing.T) {
	assert.Equal(t, "52.5200,13.4100@Europe/Berlin", berlin.Key())
}
