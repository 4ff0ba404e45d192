package livehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/schema"
)

type MockRunner struct{ mock.Mock }

func (m *MockRunner) RunCycle(ctx context.Context) (engine.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.Report), args.Error(1)
}

func (m *MockRunner) Latest() (engine.Report, bool) {
	args := m.Called()
	return args.Get(0).(engine.Report), args.Bool(1)
}

func (m *MockRunner) Running() bool { return m.Called().Bool(0) }

func newTestServer(t *testing.T, runner Runner) http.Handler {
	t.Helper()
	reg, err := schema.NewRegistry("", false)
	require.NoError(t, err)
	srv, err := NewServer(ServerConfig{Runner: runner, Schemas: reg, Gatherer: prometheus.NewRegistry()})
	require.NoError(t, err)
	return srv.Handler()
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Running").Return(false)
	rec := serve(newTestServer(t, runner), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","running":false}`, rec.Body.String())
}

func TestLatestReport(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Latest").Return(engine.Report{}, false).Once()
	runner.On("Latest").Return(engine.Report{RunID: "run-9", StartedAt: time.Unix(0, 0).UTC()}, true)
	h := newTestServer(t, runner)

	rec := serve(h, http.MethodGet, "/api/report/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodGet, "/api/report/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-9", body["run_id"])
}

func TestTriggerConflict(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Running").Return(true)
	rec := serve(newTestServer(t, runner), http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
	runner.AssertNotCalled(t, "RunCycle", mock.Anything)
}

func TestTriggerWait(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Running").Return(false)
	runner.On("RunCycle", mock.Anything).Return(engine.Report{RunID: "run-10"}, nil)
	rec := serve(newTestServer(t, runner), http.MethodPost, "/api/runs?wait=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-10")
}

func TestTriggerWaitRaced(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Running").Return(false)
	runner.On("RunCycle", mock.Anything).Return(engine.Report{}, engine.ErrRunActive)
	rec := serve(newTestServer(t, runner), http.MethodPost, "/api/runs?wait=1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerAsync(t *testing.T) {
	runner := new(MockRunner)
	called := make(chan struct{})
	runner.On("Running").Return(false)
	runner.On("RunCycle", mock.Anything).Run(func(mock.Arguments) { close(called) }).Return(engine.Report{}, nil)

	rec := serve(newTestServer(t, runner), http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("run was not started")
	}
}

func TestSchemas(t *testing.T) {
	rec := serve(newTestServer(t, new(MockRunner)), http.MethodGet, "/api/schemas")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Schemas []struct {
			Category string `json:"category"`
			Name     string `json:"name"`
		} `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Schemas, 2)
	assert.Equal(t, "CRYPTO", body.Schemas[0].Category)
	assert.Equal(t, "record_crypto_signal", body.Schemas[0].Name)
	assert.Equal(t, "execute_trade", body.Schemas[1].Name)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(t, new(MockRunner)), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
