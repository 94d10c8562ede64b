package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	ErrNoGeometry    = errors.New("geometry is missing")
	ErrEmptyGeometry = errors.New("geometry is empty")
	ErrNoCentroid    = errors.New("centroid is undefined")
)

// ValidPoint checks that p has finite coordinates.
func ValidPoint(name string, p orb.Point) error {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &TypeMismatchError{Name: name, Want: TypePoint, Got: fmt.Sprintf("non-finite coordinates %v", [2]float64(p))}
		}
	}
	return nil
}

// Centroid returns the planar centroid of g: the point itself, the
// length-weighted midpoint of lines, the area-weighted center of polygons.
// Mixed collections use only their highest-dimension members. Polygons with
// no area fall back to their outer rings as lines.
func Centroid(g orb.Geometry) (orb.Point, error) {
	if g == nil {
		return orb.Point{}, ErrNoGeometry
	}
	if isEmpty(g) {
		return orb.Point{}, ErrEmptyGeometry
	}

	var ps byDim
	ps.add(g)

	var c orb.Point
	switch {
	case len(ps.polygons) > 0:
		var area float64
		c, area = planar.CentroidArea(ps.polygons)
		if area > 0 {
			break
		}
		lines := ps.lines
		for _, p := range ps.polygons {
			lines = append(lines, orb.LineString(p[0]))
		}
		c, _ = planar.CentroidArea(lines)
	case len(ps.lines) > 0:
		c, _ = planar.CentroidArea(ps.lines)
	case len(ps.points) > 0:
		c, _ = planar.CentroidArea(ps.points)
	default:
		return orb.Point{}, ErrNoCentroid
	}

	if ValidPoint("centroid", c) != nil {
		return orb.Point{}, ErrNoCentroid
	}
	return c, nil
}

// byDim holds the non-empty members of a geometry grouped by dimension.
type byDim struct {
	points   orb.MultiPoint
	lines    orb.MultiLineString
	polygons orb.MultiPolygon
}

func (ps *byDim) add(g orb.Geometry) {
	switch g := g.(type) {
	case orb.Point:
		ps.points = append(ps.points, g)
	case orb.MultiPoint:
		ps.points = append(ps.points, g...)
	case orb.LineString:
		if len(g) > 0 {
			ps.lines = append(ps.lines, g)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			ps.add(ls)
		}
	case orb.Ring:
		ps.add(orb.Polygon{g})
	case orb.Polygon:
		if !isEmpty(g) {
			ps.polygons = append(ps.polygons, g)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			ps.add(p)
		}
	case orb.Collection:
		for _, m := range g {
			if m != nil {
				ps.add(m)
			}
		}
	case orb.Bound:
		ps.add(g.ToPolygon())
	}
}

func isEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiPolygon:
		for _, p := range g {
			if !isEmpty(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if c != nil && !isEmpty(c) {
				return false
			}
		}
		return true
	case orb.Bound:
		return false
	}
	return false
}
