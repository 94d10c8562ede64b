package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-process/internal/process/distbear"
)

const stations = `{"type":"FeatureCollection","features":[
	{"type":"Feature","id":"a","geometry":{"type":"Point","coordinates":[3,4]},"properties":{"name":"a"}},
	{"type":"Feature","id":"b","geometry":{"type":"Point","coordinates":[-1,0]},"properties":{"name":"b"}}
]}`

func TestParseOrigin(t *testing.T) {
	p, err := parseOrigin("12.5, -3")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{12.5, -3}, p)

	for _, bad := range []string{"", "1", "1,2,3", "a,b"} {
		_, err := parseOrigin(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunDistbear(t *testing.T) {
	var out bytes.Buffer
	err := runDistbear(&out, strings.NewReader(stations), orb.Point{0, 0}, distbear.ClockwiseFromNorth)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	assert.InDelta(t, 5, fc.Features[0].Properties.MustFloat64("distance"), 1e-9)
	assert.InDelta(t, 270, fc.Features[1].Properties.MustFloat64("bearing"), 1e-9)
	assert.Equal(t, orb.Point{3, 4}, fc.Features[0].Geometry)
}

func TestRunDistbearNullGeometry(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{}}]}`
	var out bytes.Buffer
	err := runDistbear(&out, strings.NewReader(in), orb.Point{0, 0}, distbear.ClockwiseFromNorth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 0")
	assert.Zero(t, out.Len())
}

func TestDistbearCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.geojson")
	require.NoError(t, os.WriteFile(path, []byte(stations), 0o644))

	var out bytes.Buffer
	cmd := newDistbearCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--origin", "0,0", "--input", path, "--legacy-bearing"})
	require.NoError(t, cmd.Execute())

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	// West of the origin maps to 90 under the legacy remap.
	assert.InDelta(t, 90, fc.Features[1].Properties.MustFloat64("bearing"), 1e-9)
}
