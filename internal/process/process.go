// Package process hosts named processes: declarative descriptors of typed
// inputs and outputs plus the code that executes them.
package process

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-process/internal/feature"
)

// Parameter types.
const (
	TypePoint             = "Point"
	TypeGeometry          = "Geometry"
	TypeFeatureCollection = "FeatureCollection"
	TypeDouble            = "Double"
	TypeString            = "String"
)

var ErrNotFound = errors.New("process not found")

// Parameter declares one named input or output.
type Parameter struct {
	Name        string `json:"name" yaml:"name" doc:"Parameter name" example:"origin"`
	Type        string `json:"type" yaml:"type" enum:"Point,Geometry,FeatureCollection,Double,String" doc:"Parameter type"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" doc:"Human-readable title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" doc:"What the parameter means"`
	Required    bool   `json:"required" yaml:"required" doc:"Whether the parameter must be supplied"`
}

// Descriptor is the static registration of a process.
type Descriptor struct {
	ID          string      `json:"id" yaml:"id" doc:"Process identifier" example:"geo:distbear"`
	Title       string      `json:"title" yaml:"title" doc:"Process title"`
	Description string      `json:"description" yaml:"description" doc:"What the process does"`
	Version     string      `json:"version,omitempty" yaml:"version,omitempty" doc:"Process version"`
	Inputs      []Parameter `json:"inputs" yaml:"inputs" doc:"Declared inputs"`
	Outputs     []Parameter `json:"outputs" yaml:"outputs" doc:"Declared outputs"`
}

// Input returns the declared input named name.
func (d Descriptor) Input(name string) (Parameter, bool) {
	return find(d.Inputs, name)
}

// Output returns the declared output named name.
func (d Descriptor) Output(name string) (Parameter, bool) {
	return find(d.Outputs, name)
}

func find(params []Parameter, name string) (Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Inputs maps input names to values.
type Inputs map[string]any

// Outputs maps output names to values.
type Outputs map[string]any

// Point returns a Point input.
func (in Inputs) Point(name string) (orb.Point, error) {
	p, ok := in[name].(orb.Point)
	if !ok {
		return orb.Point{}, mismatch(name, TypePoint, in[name])
	}
	return p, nil
}

// Collection returns a FeatureCollection input.
func (in Inputs) Collection(name string) (*feature.Collection, error) {
	c, ok := in[name].(*feature.Collection)
	if !ok || c == nil {
		return nil, mismatch(name, TypeFeatureCollection, in[name])
	}
	return c, nil
}

// Process executes a descriptor's contract.
type Process interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, in Inputs) (Outputs, error)
}

// CheckValue reports whether v has the Go type expected for a parameter type.
func CheckValue(p Parameter, v any) error {
	ok := false
	switch p.Type {
	case TypePoint:
		_, ok = v.(orb.Point)
	case TypeGeometry:
		g, isGeom := v.(orb.Geometry)
		ok = isGeom && g != nil
	case TypeFeatureCollection:
		c, isColl := v.(*feature.Collection)
		ok = isColl && c != nil
	case TypeDouble:
		_, ok = v.(float64)
	case TypeString:
		_, ok = v.(string)
	default:
		return fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
	}
	if !ok {
		return mismatch(p.Name, p.Type, v)
	}
	return nil
}

func mismatch(name, want string, v any) error {
	got := "nothing"
	if v != nil {
		got = fmt.Sprintf("%T", v)
	}
	return &feature.TypeMismatchError{Name: name, Want: want, Got: got}
}
