package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-process/internal/feature"
)

func TestValidIdent(t *testing.T) {
	assert.True(t, ValidIdent("stations"))
	assert.True(t, ValidIdent("_t2"))
	for _, bad := range []string{"", "1t", `t"; DROP TABLE x; --`, "a.b", "a b"} {
		assert.False(t, ValidIdent(bad), bad)
	}
}

func TestFieldType(t *testing.T) {
	assert.Equal(t, feature.TypeDouble, fieldType("DOUBLE"))
	assert.Equal(t, feature.TypeDouble, fieldType("DECIMAL(18,3)"))
	assert.Equal(t, feature.TypeInteger, fieldType("BIGINT"))
	assert.Equal(t, feature.TypeInteger, fieldType("INTEGER"))
	assert.Equal(t, feature.TypeString, fieldType("VARCHAR"))
	assert.Equal(t, feature.TypeBoolean, fieldType("BOOLEAN"))
	assert.Equal(t, feature.TypeObject, fieldType("STRUCT(a INTEGER)"))
}

func TestGeometryTypeName(t *testing.T) {
	assert.Equal(t, feature.TypePoint, geometryTypeName("POINT"))
	assert.Equal(t, feature.TypeMultiPolygon, geometryTypeName("multipolygon"))
	assert.Equal(t, feature.TypeGeometry, geometryTypeName("CIRCULARSTRING"))
}

func TestTableCollectionRejectsBadIdentifiers(t *testing.T) {
	_, err := TableCollection(context.Background(), nil, "x; --", "")
	assert.ErrorContains(t, err, "invalid table name")
	_, err = TableCollection(context.Background(), nil, "ok", "bad col")
	assert.ErrorContains(t, err, "invalid column name")
}

// openSpatial returns an in-memory DuckDB with the spatial extension, or
// skips when the extension cannot be installed (e.g. offline).
func openSpatial(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	if err := LoadSpatial(conn); err != nil {
		t.Skipf("duckdb spatial extension unavailable: %v", err)
	}
	return conn
}

func TestTableCollectionStreamsRows(t *testing.T) {
	conn := openSpatial(t)
	ctx := context.Background()
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE stations (name VARCHAR, geom GEOMETRY);
		INSERT INTO stations VALUES
			('north', ST_Point(0, 1)),
			('east',  ST_Point(1, 0)),
			('none',  NULL);`)
	require.NoError(t, err)

	tables, err := ListTables(ctx, conn)
	require.NoError(t, err)
	assert.Contains(t, tables, "stations")

	c, err := TableCollection(ctx, conn, "stations", "")
	require.NoError(t, err)
	assert.Equal(t, []feature.Field{
		{Name: "geometry", Type: feature.TypePoint},
		{Name: "name", Type: feature.TypeString},
	}, c.Schema.Fields())

	fs, err := feature.Collect(c)
	require.NoError(t, err)
	require.Len(t, fs, 3)

	byName := map[string]feature.Feature{}
	for _, f := range fs {
		name, _ := f.Get("name")
		byName[name.(string)] = f
	}
	assert.Equal(t, orb.Point{0, 1}, byName["north"].Geometry())
	assert.Nil(t, byName["none"].Geometry())
}

func TestTableCollectionNeedsGeometry(t *testing.T) {
	conn := openSpatial(t)
	_, err := conn.Exec(`CREATE TABLE plain (name VARCHAR)`)
	require.NoError(t, err)

	_, err = TableCollection(context.Background(), conn, "plain", "")
	var se *feature.SchemaError
	assert.ErrorAs(t, err, &se)

	_, err = TableCollection(context.Background(), conn, "absent", "")
	assert.ErrorContains(t, err, "not found")
}
