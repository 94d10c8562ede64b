// Package feature holds the value types shared by processes: schemas,
// features, one-shot feature iterators and named collections.
package feature

import "fmt"

// GeometryFieldName is the conventional name of a schema's geometry field.
const GeometryFieldName = "geometry"

// Field types. Geometry types use the GeoJSON type names.
const (
	TypePoint              = "Point"
	TypeMultiPoint         = "MultiPoint"
	TypeLineString         = "LineString"
	TypeMultiLineString    = "MultiLineString"
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"
	TypeGeometry           = "Geometry" // any geometry

	TypeDouble  = "Double"
	TypeInteger = "Integer"
	TypeString  = "String"
	TypeBoolean = "Boolean"
	TypeObject  = "Object"
)

var geometryTypes = map[string]bool{
	TypePoint:              true,
	TypeMultiPoint:         true,
	TypeLineString:         true,
	TypeMultiLineString:    true,
	TypePolygon:            true,
	TypeMultiPolygon:       true,
	TypeGeometryCollection: true,
	TypeGeometry:           true,
}

// IsGeometryType reports whether t names a geometry field type.
func IsGeometryType(t string) bool {
	return geometryTypes[t]
}

// Field describes one named, typed attribute.
type Field struct {
	Name string `json:"name" yaml:"name" doc:"Field name" example:"distance"`
	Type string `json:"type" yaml:"type" doc:"Field type" example:"Double"`
}

// Schema is the ordered field layout shared by every feature of a collection.
// A Schema is not modified after NewSchema returns it.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema. Field names must be non-empty and unique.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, &SchemaError{Schema: name, Reason: fmt.Sprintf("field %d has no name", i)}
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, &SchemaError{Schema: name, Reason: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. For static schemas.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// GeometryField returns the field named "geometry" when it carries a geometry
// type, otherwise the first field with a geometry type.
func (s *Schema) GeometryField() (Field, error) {
	if f, ok := s.Field(GeometryFieldName); ok && IsGeometryType(f.Type) {
		return f, nil
	}
	for _, f := range s.fields {
		if IsGeometryType(f.Type) {
			return f, nil
		}
	}
	return Field{}, &SchemaError{Schema: s.name, Reason: "no geometry field"}
}

// Equal reports whether two schemas have the same name and fields in order.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.name != o.name || len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	return fmt.Sprintf("%s%v", s.name, s.fields)
}
