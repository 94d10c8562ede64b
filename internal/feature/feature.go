package feature

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Feature is an immutable record of field values conforming to a Schema.
type Feature struct {
	schema  *Schema
	id      any
	geomKey string
	values  map[string]any
}

// NewFeature builds a feature. Every key of values must be declared by
// schema and the schema must have a geometry field. The geometry value may be
// nil; geometry values that are not orb.Geometry are rejected.
func NewFeature(schema *Schema, id any, values map[string]any) (Feature, error) {
	if schema == nil {
		return Feature{}, &SchemaError{Reason: "nil schema"}
	}
	gf, err := schema.GeometryField()
	if err != nil {
		return Feature{}, err
	}
	vals := make(map[string]any, len(values))
	for k, v := range values {
		if !schema.Has(k) {
			return Feature{}, &SchemaError{Schema: schema.Name(), Reason: fmt.Sprintf("unknown field %q", k)}
		}
		vals[k] = v
	}
	if g, ok := vals[gf.Name]; ok && g != nil {
		if _, isGeom := g.(orb.Geometry); !isGeom {
			return Feature{}, &TypeMismatchError{Name: gf.Name, Want: gf.Type, Got: fmt.Sprintf("%T", g)}
		}
	}
	return Feature{schema: schema, id: id, geomKey: gf.Name, values: vals}, nil
}

// Schema returns the feature's schema.
func (f Feature) Schema() *Schema { return f.schema }

// ID returns the feature identifier, or nil.
func (f Feature) ID() any { return f.id }

// Geometry returns the value of the geometry field, or nil.
func (f Feature) Geometry() orb.Geometry {
	g, _ := f.values[f.geomKey].(orb.Geometry)
	return g
}

// Get returns the value of a field.
func (f Feature) Get(name string) (any, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Float returns a numeric field as float64.
func (f Feature) Float(name string) (float64, bool) {
	switch v := f.values[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Properties returns a copy of the non-geometry values.
func (f Feature) Properties() map[string]any {
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		if k == f.geomKey {
			continue
		}
		out[k] = v
	}
	return out
}
