package feature

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"
)

// FromGeoJSON wraps a decoded GeoJSON feature collection. The schema is
// inferred up front; features are converted as they are pulled.
func FromGeoJSON(name string, fc *geojson.FeatureCollection) (*Collection, error) {
	schema, err := InferSchema(name, fc)
	if err != nil {
		return nil, err
	}
	return NewCollection(name, schema, func() (Iterator, error) {
		i := 0
		return FuncIterator(func() (Feature, bool, error) {
			if i >= len(fc.Features) {
				return Feature{}, false, nil
			}
			gf := fc.Features[i]
			i++
			f, err := fromGeoJSONFeature(schema, gf)
			if err != nil {
				return Feature{}, false, fmt.Errorf("feature %d: %w", i-1, err)
			}
			return f, true, nil
		}, nil), nil
	}), nil
}

func fromGeoJSONFeature(schema *Schema, gf *geojson.Feature) (Feature, error) {
	if gf == nil {
		return NewFeature(schema, nil, nil)
	}
	values := make(map[string]any, len(gf.Properties)+1)
	for k, v := range gf.Properties {
		if k == GeometryFieldName {
			continue
		}
		values[k] = v
	}
	if gf.Geometry != nil {
		values[GeometryFieldName] = gf.Geometry
	}
	return NewFeature(schema, gf.ID, values)
}

// InferSchema derives a schema from a GeoJSON collection. The geometry type is
// the common GeoJSON type of all non-null geometries, or Geometry when they
// differ. Property fields are sorted by name and typed from the first
// non-null value seen.
func InferSchema(name string, fc *geojson.FeatureCollection) (*Schema, error) {
	geomType := ""
	props := map[string]string{}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if f.Geometry != nil {
			t := GeometryType(f.Geometry)
			switch geomType {
			case "":
				geomType = t
			case t:
			default:
				geomType = TypeGeometry
			}
		}
		for k, v := range f.Properties {
			if k == GeometryFieldName {
				continue
			}
			if t, seen := props[k]; seen && t != "" {
				continue
			}
			props[k] = valueType(v)
		}
	}
	if geomType == "" {
		geomType = TypeGeometry
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := []Field{{Name: GeometryFieldName, Type: geomType}}
	for _, k := range keys {
		t := props[k]
		if t == "" {
			t = TypeObject
		}
		fields = append(fields, Field{Name: k, Type: t})
	}
	return NewSchema(name, fields...)
}

// valueType maps a decoded JSON value to a field type; "" for null.
func valueType(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case float64, float32:
		return TypeDouble
	case int, int32, int64:
		return TypeInteger
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	}
	return TypeObject
}

// ToGeoJSON drains c into a GeoJSON feature collection named after c.
// Any iteration error discards the partial result.
func ToGeoJSON(c *Collection) (*geojson.FeatureCollection, error) {
	it, err := c.Features()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	fc := geojson.NewFeatureCollection()
	for it.Next() {
		fc.Append(ToGeoJSONFeature(it.Feature()))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	fc.ExtraMembers = geojson.Properties{"name": c.Name}
	return fc, nil
}

// ToGeoJSONFeature converts a single feature.
func ToGeoJSONFeature(f Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry())
	gf.ID = f.ID()
	for k, v := range f.Properties() {
		gf.Properties[k] = v
	}
	return gf
}
