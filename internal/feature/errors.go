package feature

import "fmt"

// SchemaError reports a schema that cannot be used, e.g. one with no geometry
// field or with duplicate field names.
type SchemaError struct {
	Schema string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Schema == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema %q: %s", e.Schema, e.Reason)
}

// GeometryError reports a feature whose geometry is missing or has no
// computable centroid. Index is the zero-based position in the stream.
type GeometryError struct {
	Index int
	ID    any
	Err   error
}

func (e *GeometryError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("feature %d (id %v): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("feature %d: %v", e.Index, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// TypeMismatchError reports a value that does not match its declared type.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Name, e.Want, e.Got)
}
