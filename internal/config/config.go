package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// GitHub events source.
	GitHubToken    string `envconfig:"GITHUB_TOKEN"`
	GitHubAPIURL   string `envconfig:"GITHUB_API_URL" default:"https://api.github.com/" validate:"url"`
	EventsMaxPages int    `envconfig:"EVENTS_MAX_PAGES" default:"3" validate:"min=1,max=10"`

	// Open-Meteo weather source.
	WeatherAPIURL    string  `envconfig:"WEATHER_API_URL" default:"https://archive-api.open-meteo.com/v1/archive" validate:"url"`
	WeatherLatitude  float64 `envconfig:"WEATHER_LATITUDE" default:"52.52" validate:"gte=-90,lte=90"`
	WeatherLongitude float64 `envconfig:"WEATHER_LONGITUDE" default:"13.41" validate:"gte=-180,lte=180"`
	WeatherTimezone  string  `envconfig:"WEATHER_TIMEZONE" default:"UTC" validate:"required,timezone"`
	WeatherCacheSize int     `envconfig:"WEATHER_CACHE_SIZE" default:"256" validate:"min=1"`

	// Upstream resilience.
	RateLimitInterval       time.Duration `envconfig:"RATE_LIMIT_INTERVAL" default:"1s" validate:"gte=0"`
	RequestTimeout          time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	RetryMaxAttempts        int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3" validate:"min=1,max=10"`
	RetryBaseDelay          time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s" validate:"gte=0"`
	RetryJitter             time.Duration `envconfig:"RETRY_JITTER" default:"500ms" validate:"gte=0"`
	BreakerFailureThreshold uint32        `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"5" validate:"min=1"`

	// Analysis defaults.
	BaselineOrgs []string `envconfig:"BASELINE_ORGS"`
	AnalysisDays int      `envconfig:"ANALYSIS_DAYS" default:"30" validate:"min=1,max=90"`

	// Optional Kafka report sink.
	KafkaEnabled     bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"required_if=KafkaEnabled true"`
	KafkaReportTopic string   `envconfig:"KAFKA_REPORT_TOPIC" default:"activity-insights-reports" validate:"required_if=KafkaEnabled true"`
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present; it
// never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// newValidator reports failures by environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}
