// Package db reads feature tables from DuckDB.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb/encoding/wkb"

	"github.com/joeblew999/geo-process/internal/feature"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s can be used unquoted as a table or column name.
func ValidIdent(s string) bool {
	return identRe.MatchString(s)
}

// ListTables returns the tables of the main schema.
func ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

type column struct {
	name   string
	dbType string
}

// TableCollection returns a collection over the rows of table. geomColumn
// names the GEOMETRY column; when empty the first one is used. Rows are
// streamed from DuckDB as the collection is iterated.
func TableCollection(ctx context.Context, db *sql.DB, table, geomColumn string) (*feature.Collection, error) {
	if !ValidIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if geomColumn != "" && !ValidIdent(geomColumn) {
		return nil, fmt.Errorf("invalid column name %q", geomColumn)
	}

	cols, err := describe(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}

	var props []column
	for _, c := range cols {
		if geomColumn == "" && strings.EqualFold(c.dbType, "GEOMETRY") {
			geomColumn = c.name
			continue
		}
		if c.name != geomColumn {
			props = append(props, c)
		}
	}
	if geomColumn == "" {
		return nil, &feature.SchemaError{Schema: table, Reason: "no GEOMETRY column"}
	}

	geomType, err := geometryType(ctx, db, table, geomColumn)
	if err != nil {
		return nil, err
	}

	fields := []feature.Field{{Name: feature.GeometryFieldName, Type: geomType}}
	selects := []string{fmt.Sprintf(`ST_AsWKB("%s")::BLOB`, geomColumn)}
	for _, c := range props {
		if c.name == feature.GeometryFieldName {
			continue
		}
		fields = append(fields, feature.Field{Name: c.name, Type: fieldType(c.dbType)})
		selects = append(selects, fmt.Sprintf(`"%s"`, c.name))
	}
	schema, err := feature.NewSchema(table, fields...)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM "%s"`, strings.Join(selects, ", "), table)
	return feature.NewCollection(table, schema, func() (feature.Iterator, error) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &rowIterator{rows: rows, schema: schema, fields: fields}, nil
	}), nil
}

func describe(ctx context.Context, db *sql.DB, table string) ([]column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var c column
		if err := rows.Scan(&c.name, &c.dbType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// geometryType returns the common geometry type of a column, or Geometry
// when the column is empty or mixed.
func geometryType(ctx context.Context, db *sql.DB, table, col string) (string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT ST_GeometryType("%s")::VARCHAR FROM "%s" WHERE "%s" IS NOT NULL LIMIT 2`, col, table, col)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return "", fmt.Errorf("geometry type of %s.%s: %w", table, col, err)
	}
	defer rows.Close()

	var kinds []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return "", err
		}
		kinds = append(kinds, k)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(kinds) != 1 {
		return feature.TypeGeometry, nil
	}
	return geometryTypeName(kinds[0]), nil
}

var duckGeometryTypes = map[string]string{
	"POINT":              feature.TypePoint,
	"MULTIPOINT":         feature.TypeMultiPoint,
	"LINESTRING":         feature.TypeLineString,
	"MULTILINESTRING":    feature.TypeMultiLineString,
	"POLYGON":            feature.TypePolygon,
	"MULTIPOLYGON":       feature.TypeMultiPolygon,
	"GEOMETRYCOLLECTION": feature.TypeGeometryCollection,
}

func geometryTypeName(duck string) string {
	if t, ok := duckGeometryTypes[strings.ToUpper(duck)]; ok {
		return t
	}
	return feature.TypeGeometry
}

func fieldType(dbType string) string {
	t := strings.ToUpper(dbType)
	switch {
	case t == "DOUBLE" || t == "FLOAT" || t == "REAL" || strings.HasPrefix(t, "DECIMAL"):
		return feature.TypeDouble
	case strings.HasSuffix(t, "INT") || t == "INTEGER" || t == "HUGEINT" || strings.HasPrefix(t, "UINT"):
		return feature.TypeInteger
	case t == "VARCHAR" || t == "TEXT":
		return feature.TypeString
	case t == "BOOLEAN":
		return feature.TypeBoolean
	}
	return feature.TypeObject
}

// rowIterator decodes one row per Next. Scan and decode errors end the
// stream and are reported by Err as returned by database/sql.
type rowIterator struct {
	rows   *sql.Rows
	schema *feature.Schema
	fields []feature.Field
	n      int
	cur    feature.Feature
	err    error
}

func (it *rowIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}

	vals := make([]any, len(it.fields))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = err
		return false
	}

	values := make(map[string]any, len(vals))
	if b, ok := vals[0].([]byte); ok && b != nil {
		g, err := wkb.Unmarshal(b)
		if err != nil {
			it.err = fmt.Errorf("row %d: decoding geometry: %w", it.n, err)
			return false
		}
		values[feature.GeometryFieldName] = g
	}
	for i := 1; i < len(vals); i++ {
		values[it.fields[i].Name] = vals[i]
	}

	f, err := feature.NewFeature(it.schema, it.n, values)
	if err != nil {
		it.err = err
		return false
	}
	it.n++
	it.cur = f
	return true
}

func (it *rowIterator) Feature() feature.Feature { return it.cur }

func (it *rowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *rowIterator) Close() error { return it.rows.Close() }
