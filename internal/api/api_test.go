package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-process/internal/process"
	"github.com/joeblew999/geo-process/internal/process/distbear"
	"github.com/joeblew999/geo-process/internal/service"
)

const executePath = "/api/v1/processes/geo:distbear/execute"

var compass = map[string]any{
	"type": "FeatureCollection",
	"features": []any{
		pointFeature("north", 0, 1),
		pointFeature("east", 1, 0),
		pointFeature("south", 0, -1),
		pointFeature("west", -1, 0),
	},
}

func pointFeature(name string, x, y float64) map[string]any {
	return map[string]any{
		"type":       "Feature",
		"geometry":   map[string]any{"type": "Point", "coordinates": []float64{x, y}},
		"properties": map[string]any{"name": name},
	}
}

type testEnv struct {
	api humatest.TestAPI
	bus *service.EventBus
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	_, tapi := humatest.New(t)

	reg := process.NewRegistry(nil, nil)
	reg.MustRegister(distbear.New(distbear.ClockwiseFromNorth))

	dir := t.TempDir()
	bus := service.NewEventBus()
	RegisterRoutes(tapi, &Services{
		Registry: reg,
		Source:   service.NewSourceService(dir),
		Bus:      bus,
	})
	return &testEnv{api: tapi, bus: bus, dir: dir}
}

type executeResponse struct {
	Process  string `json:"process"`
	Features int    `json:"features"`
	Outputs  struct {
		Result struct {
			Type     string `json:"type"`
			Name     string `json:"name"`
			Features []struct {
				Geometry struct {
					Type        string    `json:"type"`
					Coordinates []float64 `json:"coordinates"`
				} `json:"geometry"`
				Properties struct {
					Distance float64 `json:"distance"`
					Bearing  float64 `json:"bearing"`
				} `json:"properties"`
			} `json:"features"`
		} `json:"result"`
	} `json:"outputs"`
}

func decode(t *testing.T, body []byte) executeResponse {
	t.Helper()
	var out executeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"ok"`)
}

func TestListAndGetProcess(t *testing.T) {
	env := newTestEnv(t)

	resp := env.api.Get("/api/v1/processes")
	require.Equal(t, http.StatusOK, resp.Code)
	var list []process.Descriptor
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, distbear.ID, list[0].ID)

	resp = env.api.Get("/api/v1/processes/geo:distbear")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Distance and Bearing")

	resp = env.api.Get("/api/v1/processes/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestExecuteInline(t *testing.T) {
	env := newTestEnv(t)
	events := env.bus.Subscribe()

	resp := env.api.Post(executePath, map[string]any{
		"inputs": map[string]any{
			"origin":   map[string]any{"type": "Point", "coordinates": []float64{0, 0}},
			"features": compass,
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decode(t, resp.Body.Bytes())
	assert.Equal(t, distbear.ID, out.Process)
	assert.Equal(t, 4, out.Features)
	assert.Equal(t, "FeatureCollection", out.Outputs.Result.Type)
	assert.Equal(t, "result", out.Outputs.Result.Name)
	require.Len(t, out.Outputs.Result.Features, 4)

	wantBearing := []float64{0, 90, 180, 270}
	for i, f := range out.Outputs.Result.Features {
		assert.Equal(t, "Point", f.Geometry.Type)
		assert.InDelta(t, 1, f.Properties.Distance, 1e-9)
		assert.InDelta(t, wantBearing[i], f.Properties.Bearing, 1e-9)
	}

	ev := <-events
	assert.Equal(t, process.StatusOK, ev.Status)
	assert.Equal(t, 4, ev.Features)
}

func TestExecuteOriginAsPair(t *testing.T) {
	env := newTestEnv(t)
	resp := env.api.Post(executePath, map[string]any{
		"inputs": map[string]any{"origin": []float64{0, 2}, "features": compass},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode(t, resp.Body.Bytes())
	assert.InDelta(t, 1, out.Outputs.Result.Features[0].Properties.Distance, 1e-9)
	assert.InDelta(t, 180, out.Outputs.Result.Features[0].Properties.Bearing, 1e-9)
}

func TestExecuteFromSource(t *testing.T) {
	env := newTestEnv(t)
	data, err := json.Marshal(compass)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(env.dir, "sources"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "sources", "compass.geojson"), data, 0o644))

	resp := env.api.Post(executePath, map[string]any{
		"inputs": map[string]any{
			"origin":   []float64{0, 0},
			"features": map[string]any{"source": "compass.geojson"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 4, decode(t, resp.Body.Bytes()).Features)

	resp = env.api.Get("/api/v1/sources")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "compass.geojson")
}

func TestExecuteErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		inputs map[string]any
		status int
	}{
		{
			name:   "unknown process",
			path:   "/api/v1/processes/nope/execute",
			inputs: map[string]any{},
			status: http.StatusNotFound,
		},
		{
			name:   "missing features",
			path:   executePath,
			inputs: map[string]any{"origin": []float64{0, 0}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "origin is not a point",
			path:   executePath,
			inputs: map[string]any{"origin": map[string]any{"type": "LineString", "coordinates": [][]float64{{0, 0}, {1, 1}}}, "features": compass},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown input",
			path:   executePath,
			inputs: map[string]any{"origin": []float64{0, 0}, "features": compass, "radius": 3.0},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing source",
			path:   executePath,
			inputs: map[string]any{"origin": []float64{0, 0}, "features": map[string]any{"source": "absent.geojson"}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "table without database",
			path:   executePath,
			inputs: map[string]any{"origin": []float64{0, 0}, "features": map[string]any{"table": "stations"}},
			status: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.api.Post(tt.path, map[string]any{"inputs": tt.inputs})
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
		})
	}
}

func TestExecuteNullGeometryFailsWithoutPartialResult(t *testing.T) {
	env := newTestEnv(t)
	withNull := map[string]any{
		"type": "FeatureCollection",
		"features": []any{
			pointFeature("ok", 1, 1),
			map[string]any{"type": "Feature", "geometry": nil, "properties": map[string]any{"name": "null"}},
		},
	}

	resp := env.api.Post(executePath, map[string]any{
		"inputs": map[string]any{"origin": []float64{0, 0}, "features": withNull},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "geometry is missing")
	assert.NotContains(t, resp.Body.String(), "FeatureCollection")
}

func TestTablesWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)
	resp := env.api.Get("/api/v1/tables")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t)
	resp := env.api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	var body InfoBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "geo-process", body.Name)
	assert.Equal(t, 1, body.Processes)
	assert.False(t, body.DB)
}
