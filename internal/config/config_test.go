package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.GitHubToken)
	assert.Equal(t, "https://api.github.com/", cfg.GitHubAPIURL)
	assert.Equal(t, 3, cfg.EventsMaxPages)
	assert.Equal(t, "https://archive-api.open-meteo.com/v1/archive", cfg.WeatherAPIURL)
	assert.InDelta(t, 52.52, cfg.WeatherLatitude, 1e-9)
	assert.InDelta(t, 13.41, cfg.WeatherLongitude, 1e-9)
	assert.Equal(t, "UTC", cfg.WeatherTimezone)
	assert.Equal(t, 256, cfg.WeatherCacheSize)
	assert.Equal(t, time.Second, cfg.RateLimitInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryJitter)
	assert.Equal(t, uint32(5), cfg.BreakerFailureThreshold)
	assert.Empty(t, cfg.BaselineOrgs)
	assert.Equal(t, 30, cfg.AnalysisDays)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "activity-insights-reports", cfg.KafkaReportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_API_URL", "https://github.example.com/api/v3/")
	t.Setenv("EVENTS_MAX_PAGES", "5")
	t.Setenv("WEATHER_LATITUDE", "40.71")
	t.Setenv("WEATHER_LONGITUDE", "-74.01")
	t.Setenv("WEATHER_TIMEZONE", "America/New_York")
	t.Setenv("WEATHER_CACHE_SIZE", "32")
	t.Setenv("RATE_LIMIT_INTERVAL", "250ms")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("RETRY_BASE_DELAY", "2s")
	t.Setenv("RETRY_JITTER", "0s")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "8")
	t.Setenv("BASELINE_ORGS", "golang,kubernetes")
	t.Setenv("ANALYSIS_DAYS", "14")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "https://github.example.com/api/v3/", cfg.GitHubAPIURL)
	assert.Equal(t, 5, cfg.EventsMaxPages)
	assert.InDelta(t, 40.71, cfg.WeatherLatitude, 1e-9)
	assert.InDelta(t, -74.01, cfg.WeatherLongitude, 1e-9)
	assert.Equal(t, "America/New_York", cfg.WeatherTimezone)
	assert.Equal(t, 32, cfg.WeatherCacheSize)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.RetryMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	assert.Zero(t, cfg.RetryJitter)
	assert.Equal(t, uint32(8), cfg.BreakerFailureThreshold)
	assert.Equal(t, []string{"golang", "kubernetes"}, cfg.BaselineOrgs)
	assert.Equal(t, 14, cfg.AnalysisDays)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
		{"GITHUB_API_URL", "not a url"},
		{"EVENTS_MAX_PAGES", "0"},
		{"WEATHER_LATITUDE", "91"},
		{"WEATHER_LONGITUDE", "-181"},
		{"WEATHER_TIMEZONE", "Mars/Olympus_Mons"},
		{"WEATHER_CACHE_SIZE", "0"},
		{"REQUEST_TIMEOUT", "0s"},
		{"RETRY_MAX_ATTEMPTS", "0"},
		{"BREAKER_FAILURE_THRESHOLD", "0"},
		{"ANALYSIS_DAYS", "365"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaEnabledRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaDisabledIgnoresBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	_, err := Load()
	require.NoError(t, err)
}
