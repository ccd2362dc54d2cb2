//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/adapter/kafka"
	"github.com/couchcryptid/activity-insights-service/internal/config"
	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
	"github.com/couchcryptid/activity-insights-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testReportTopic = "test-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("insights-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeGitHub serves one push per day for the user and the organization.
func fakeGitHub(t *testing.T, start time.Time, days int) *httptest.Server {
	t.Helper()
	events := func(actor string, commits func(int) int) []map[string]any {
		out := make([]map[string]any, 0, days)
		for i := range days {
			list := make([]map[string]any, commits(i))
			for j := range list {
				list[j] = map[string]any{"sha": fmt.Sprintf("%s-%d-%d", actor, i, j)}
			}
			out = append(out, map[string]any{
				"id":         fmt.Sprintf("%s-%d", actor, i),
				"type":       "PushEvent",
				"created_at": start.AddDate(0, 0, i).Add(12 * time.Hour).Format(time.RFC3339),
				"actor":      map[string]any{"login": actor},
				"repo":       map[string]any{"name": actor + "/repo"},
				"payload":    map[string]any{"commits": list},
			})
		}
		return out
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octocat/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events("octocat", func(i int) int { return 1 + i%4 }))
	})
	mux.HandleFunc("GET /orgs/golang/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events("golang", func(int) int { return 2 }))
	})
	mux.HandleFunc("GET /orgs/missing/events", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeOpenMeteo serves daily weather for whatever range is requested.
func fakeOpenMeteo(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, err1 := time.Parse(domain.DateLayout, r.URL.Query().Get("start_date"))
		to, err2 := time.Parse(domain.DateLayout, r.URL.Query().Get("end_date"))
		if !assert.NoError(t, err1) || !assert.NoError(t, err2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var dates []string
		var temps, rain []float64
		for d, i := from, 0; !d.After(to); d, i = d.AddDate(0, 0, 1), i+1 {
			dates = append(dates, d.Format(domain.DateLayout))
			temps = append(temps, 8+float64(i))
			rain = append(rain, float64(i%3))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"daily": map[string]any{
				"time":               dates,
				"temperature_2m_max": temps,
				"precipitation_sum":  rain,
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestAnalysisPublishesReport runs a full analysis against fake upstreams and
// verifies the report lands on the Kafka topic.
func TestAnalysisPublishesReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	gh := fakeGitHub(t, start, 14)
	weather := fakeOpenMeteo(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.GitHubAPIURL = gh.URL
	cfg.WeatherAPIURL = weather.URL
	cfg.RateLimitInterval = 0
	cfg.RetryBaseDelay = 0
	cfg.RetryJitter = 0
	cfg.KafkaEnabled = true
	cfg.KafkaBrokers = []string{broker}
	cfg.KafkaReportTopic = testReportTopic

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p, err := pipeline.NewFromConfig(cfg, writer, discardLogger(), metrics)
	require.NoError(t, err)

	report, err := p.Analyze(ctx, domain.AnalysisRequest{
		Username: "octocat",
		Orgs:     []string{"golang", "missing"},
		Start:    "2024-03-01",
		End:      "2024-03-14",
	})
	require.NoError(t, err)

	require.Len(t, report.Series, 14)
	assert.True(t, report.Fetch.HasPartialData)
	assert.Contains(t, report.Fetch.Errors, "missing")
	assert.True(t, report.Performance.HasEnoughData)
	assert.True(t, report.Weather.HasEnoughData)
	assert.NotEmpty(t, report.Insights)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-reports-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	assert.Equal(t, report.RunID, string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "octocat", headers["username"])
	assert.Equal(t, strconv.Itoa(len(report.Insights)), headers["insight_count"])

	var published domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &published))
	assert.Equal(t, report.RunID, published.RunID)
	assert.Len(t, published.Series, 14)
	assert.Equal(t, len(report.Insights), len(published.Insights))
}

// TestKafkaWriterRoundTrip verifies the writer alone against a real broker.
func TestKafkaWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaReportTopic: testReportTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	generated := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, writer.Publish(ctx, domain.Report{
		RunID:       "run-42",
		GeneratedAt: generated,
		Request:     domain.AnalysisRequest{Username: "octocat"},
	}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-roundtrip-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-42"), msg.Key)
	var got domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, generated, got.GeneratedAt)
}
