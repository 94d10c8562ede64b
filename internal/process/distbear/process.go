package distbear

import (
	"context"

	"github.com/joeblew999/geo-process/internal/process"
)

// ID is the registered process identifier.
const ID = "geo:distbear"

var descriptor = process.Descriptor{
	ID:          ID,
	Title:       "Distance and Bearing",
	Description: "Generates features with (cartesian) distance and bearing metrics given an existing feature collection and an origin.",
	Version:     "1.0.0",
	Inputs: []process.Parameter{
		{
			Name:        "origin",
			Type:        process.TypePoint,
			Title:       "Origin",
			Description: "The origin from which to calculate distance and bearing.",
			Required:    true,
		},
		{
			Name:        "features",
			Type:        process.TypeFeatureCollection,
			Title:       "Features",
			Description: "The features to which distance and bearing should be calculated.",
			Required:    true,
		},
	},
	Outputs: []process.Parameter{
		{
			Name:        "result",
			Type:        process.TypeFeatureCollection,
			Title:       "Resulting Features",
			Description: "Features with calculated distance and bearing attributes.",
		},
	},
}

// Process exposes a Transformer through the process registry.
type Process struct {
	Transformer Transformer
}

// New returns the process using conv for bearings.
func New(conv BearingConvention) *Process {
	return &Process{Transformer: Transformer{Convention: conv}}
}

func (p *Process) Descriptor() process.Descriptor {
	return descriptor
}

func (p *Process) Execute(ctx context.Context, in process.Inputs) (process.Outputs, error) {
	origin, err := in.Point("origin")
	if err != nil {
		return nil, err
	}
	features, err := in.Collection("features")
	if err != nil {
		return nil, err
	}
	result, err := p.Transformer.Run(origin, features)
	if err != nil {
		return nil, err
	}
	return process.Outputs{"result": result}, nil
}
