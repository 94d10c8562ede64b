// Package distbear annotates features with their planar distance and compass
// bearing from an origin point.
//
// The output is evaluated lazily: each output feature is computed when the
// consumer pulls it, so stopping early never touches the rest of the input.
package distbear

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/joeblew999/geo-process/internal/feature"
)

// Output schema and field names.
const (
	ResultName    = "result"
	DistanceField = "distance"
	BearingField  = "bearing"
)

// CoincidentBearing is reported for features whose centroid equals the origin.
const CoincidentBearing = 270.0

// BearingConvention selects how the direction angle is expressed.
type BearingConvention int

const (
	// ClockwiseFromNorth is a compass bearing: 0 north, 90 east, 180 south,
	// 270 west.
	ClockwiseFromNorth BearingConvention = iota
	// OffsetAtan2 is (270 + atan2(dy, dx) in degrees) mod 360, the remap used
	// by the GeoScript distance/bearing process. North and south agree with
	// ClockwiseFromNorth; east and west are swapped.
	OffsetAtan2
)

func (c BearingConvention) String() string {
	if c == OffsetAtan2 {
		return "offset-atan2"
	}
	return "clockwise-from-north"
}

// Transformer computes distance and bearing. The zero value uses
// ClockwiseFromNorth.
type Transformer struct {
	Convention BearingConvention
}

var std Transformer

// DeriveOutputSchema returns the "result" schema for in: geometry with the
// same type as in's geometry field, then distance and bearing as Double.
func DeriveOutputSchema(in *feature.Schema) (*feature.Schema, error) {
	if in == nil {
		return nil, &feature.SchemaError{Reason: "nil schema"}
	}
	gf, err := in.GeometryField()
	if err != nil {
		return nil, err
	}
	return feature.NewSchema(ResultName,
		feature.Field{Name: feature.GeometryFieldName, Type: gf.Type},
		feature.Field{Name: DistanceField, Type: feature.TypeDouble},
		feature.Field{Name: BearingField, Type: feature.TypeDouble},
	)
}

// Transform annotates in with the default Transformer.
func Transform(origin orb.Point, out *feature.Schema, in feature.Iterator) (feature.Iterator, error) {
	return std.Transform(origin, out, in)
}

// Run annotates a collection with the default Transformer.
func Run(origin orb.Point, in *feature.Collection) (*feature.Collection, error) {
	return std.Run(origin, in)
}

// Transform returns an iterator producing one feature of schema out per
// feature of in, in order. The origin is validated before anything is read.
// Features without a usable geometry stop the stream with a
// *feature.GeometryError; errors from in are passed through unchanged.
func (t Transformer) Transform(origin orb.Point, out *feature.Schema, in feature.Iterator) (feature.Iterator, error) {
	if err := feature.ValidPoint("origin", origin); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &feature.SchemaError{Reason: "nil output schema"}
	}

	idx := 0
	next := func() (feature.Feature, bool, error) {
		if !in.Next() {
			return feature.Feature{}, false, in.Err()
		}
		f, err := t.annotate(idx, origin, out, in.Feature())
		if err != nil {
			return feature.Feature{}, false, err
		}
		idx++
		return f, true, nil
	}
	return feature.FuncIterator(next, in.Close), nil
}

// Run derives the output schema from in and returns a collection named
// "result" that transforms a fresh input iterator each time it is opened.
func (t Transformer) Run(origin orb.Point, in *feature.Collection) (*feature.Collection, error) {
	if err := feature.ValidPoint("origin", origin); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, &feature.TypeMismatchError{Name: "features", Want: "FeatureCollection", Got: "nil"}
	}
	out, err := DeriveOutputSchema(in.Schema)
	if err != nil {
		return nil, err
	}
	return feature.NewCollection(ResultName, out, func() (feature.Iterator, error) {
		src, err := in.Features()
		if err != nil {
			return nil, err
		}
		return t.Transform(origin, out, src)
	}), nil
}

func (t Transformer) annotate(idx int, origin orb.Point, out *feature.Schema, f feature.Feature) (feature.Feature, error) {
	g := f.Geometry()
	c, err := feature.Centroid(g)
	if err != nil {
		return feature.Feature{}, &feature.GeometryError{Index: idx, ID: f.ID(), Err: err}
	}
	return feature.NewFeature(out, f.ID(), map[string]any{
		feature.GeometryFieldName: g,
		DistanceField:             Distance(origin, c),
		BearingField:              t.Bearing(origin, c),
	})
}

// Distance is the euclidean distance between a and b.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Bearing returns the compass bearing from origin to p in [0, 360).
func Bearing(origin, p orb.Point) float64 {
	return std.Bearing(origin, p)
}

// Bearing returns the bearing from origin to p in [0, 360) using t's
// convention. Coincident points yield CoincidentBearing.
func (t Transformer) Bearing(origin, p orb.Point) float64 {
	dx, dy := p.X()-origin.X(), p.Y()-origin.Y()
	if dx == 0 && dy == 0 {
		return CoincidentBearing
	}
	theta := math.Atan2(dy, dx) * 180 / math.Pi
	if t.Convention == OffsetAtan2 {
		return normalize(270 + theta)
	}
	return normalize(90 - theta)
}

// normalize maps deg into [0, 360).
func normalize(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}
