package server

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	l := zerolog.New(&logs)
	s := New(Config{Host: "localhost", Port: "0", DataDir: t.TempDir(), NoDB: true, Logger: &l})
	t.Cleanup(func() { s.Close() })
	return s, &logs
}

const executeBody = `{"inputs":{"origin":[0,0],"features":{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[1,0]},"properties":{}}]}}}`

func TestRoot(t *testing.T) {
	s, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "geo-process")

	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestIDAndLinks(t *testing.T) {
	s, logs := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc123", rr.Header().Get("X-Request-ID"))
	assert.Contains(t, strings.Join(rr.Header().Values("Link"), ","), `rel="processes"`)
	assert.Contains(t, logs.String(), `"request_id":"abc123"`)
}

func TestExecuteUpdatesMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/geo:distbear/execute", strings.NewReader(executeBody))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"bearing":90`)

	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `geo_process_executions_total{process="geo:distbear",status="ok"} 1`)
	assert.Contains(t, body, `geo_process_features_total{process="geo:distbear"} 1`)
}

func TestFailedStreamCountsAsFailed(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"inputs":{"origin":[0,0],"features":{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,0]},"properties":{}},
		{"type":"Feature","geometry":null,"properties":{}}]}}}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/geo:distbear/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	metrics := rr.Body.String()
	assert.Contains(t, metrics, `geo_process_executions_total{process="geo:distbear",status="failed"} 1`)
	assert.NotContains(t, metrics, `geo_process_executions_total{process="geo:distbear",status="ok"}`)
}

func TestLegacyBearing(t *testing.T) {
	s := New(Config{DataDir: t.TempDir(), NoDB: true, LegacyBearing: true})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/geo:distbear/execute", strings.NewReader(executeBody))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"bearing":270`)
}

func TestEventsStream(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	require.NoError(t, err)

	// The subscription is registered once the handler starts streaming;
	// keep executing until an event arrives.
	lines := make(chan string)
	go func() {
		defer close(lines)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed before an event arrived")
			if strings.Contains(line, "lastExecution") {
				assert.Contains(t, line, "geo:distbear")
				return
			}
		case <-tick.C:
			r, err := http.Post(ts.URL+"/api/v1/processes/geo:distbear/execute", "application/json", strings.NewReader(executeBody))
			require.NoError(t, err)
			r.Body.Close()
		case <-ctx.Done():
			t.Fatal("timed out waiting for execution event")
		}
	}
}

func TestOpenAPIListsProcessRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	spec := s.OpenAPI()
	require.NotNil(t, spec.Paths)
	assert.Contains(t, spec.Paths, "/api/v1/processes/{id}/execute")
	assert.Len(t, s.Registry().List(), 1)
}
