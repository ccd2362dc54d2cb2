package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/activity-insights-service/internal/adapter/http"
	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnalyzer struct {
	readyErr error
	report   domain.Report
	err      error
	got      []domain.AnalysisRequest
}

func (m *mockAnalyzer) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockAnalyzer) Analyze(_ context.Context, req domain.AnalysisRequest) (domain.Report, error) {
	m.got = append(m.got, req)
	return m.report, m.err
}

func newTestServer(a *mockAnalyzer) *httpadapter.Server {
	return httpadapter.NewServer(":0", a, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(&mockAnalyzer{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(&mockAnalyzer{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(&mockAnalyzer{readyErr: fmt.Errorf("events source circuit breaker is open")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "events source circuit breaker is open", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(&mockAnalyzer{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInsights_ParsesQuery(t *testing.T) {
	a := &mockAnalyzer{report: domain.Report{RunID: "run-1"}}
	rec := get(newTestServer(a), "/api/v1/insights?user=octocat&orgs=golang,+kubernetes,&start=2024-03-01&end=2024-03-10")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.got, 1)
	assert.Equal(t, domain.AnalysisRequest{
		Username: "octocat",
		Orgs:     []string{"golang", "kubernetes"},
		Start:    "2024-03-01",
		End:      "2024-03-10",
	}, a.got[0])

	var body domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestInsights_OrgsParameter(t *testing.T) {
	a := &mockAnalyzer{}
	srv := newTestServer(a)

	get(srv, "/api/v1/insights?user=octocat")
	get(srv, "/api/v1/insights?user=octocat&orgs=")

	require.Len(t, a.got, 2)
	assert.Nil(t, a.got[0].Orgs, "absent orgs selects the configured baseline")
	assert.NotNil(t, a.got[1].Orgs)
	assert.Empty(t, a.got[1].Orgs, "empty orgs disables the baseline")
}

func TestInsights_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", domain.NewValidationError("validate identifier", errors.New("bad")), http.StatusBadRequest, "validation"},
		{"not found", &domain.Error{Kind: domain.KindNotFound}, http.StatusNotFound, "not_found"},
		{"rate limit", &domain.Error{Kind: domain.KindRateLimit}, http.StatusTooManyRequests, "rate_limit"},
		{"timeout", fmt.Errorf("fetch user: %w", &domain.Error{Kind: domain.KindTimeout}), http.StatusGatewayTimeout, "timeout"},
		{"network", &domain.Error{Kind: domain.KindNetwork}, http.StatusBadGateway, "network"},
		{"unclassified", errors.New("boom"), http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(&mockAnalyzer{err: tt.err}), "/api/v1/insights?user=octocat")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestInsights_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockAnalyzer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/insights", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
