package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geo-process/internal/db"
	"github.com/joeblew999/geo-process/internal/feature"
	"github.com/joeblew999/geo-process/internal/logger"
	"github.com/joeblew999/geo-process/internal/process"
	"github.com/joeblew999/geo-process/internal/service"
)

// ExecuteInput carries the process ID and its named inputs.
//
// Point inputs accept a GeoJSON Point or an [x, y] pair. FeatureCollection
// inputs accept an inline GeoJSON FeatureCollection, {"source": "<file>"} for
// a file under the sources directory, or {"table": "<name>"} for a DuckDB
// table (optionally with "geometryColumn").
type ExecuteInput struct {
	IDInput
	Body struct {
		Inputs map[string]any `json:"inputs" required:"true" doc:"Process inputs keyed by parameter name"`
	}
}

type ExecuteBody struct {
	Process  string         `json:"process" doc:"Executed process ID"`
	Outputs  map[string]any `json:"outputs" doc:"Process outputs keyed by parameter name; collections are GeoJSON"`
	Features int            `json:"features" doc:"Number of features across collection outputs"`
}

// Execute decodes inputs, runs the process and encodes every output. Feature
// collections are fully evaluated before anything is written, so a failure
// anywhere in the stream returns an error and no partial result.
func (h *APIHandler) Execute(ctx context.Context, input *ExecuteInput) (*struct{ Body ExecuteBody }, error) {
	ctx = logger.WithProcess(logger.WithComponent(ctx, "api"), input.ID)
	log := logger.FromContext(ctx, h.svc.Log)

	p, ok := h.svc.Registry.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("process not found")
	}
	d := p.Descriptor()

	in := process.Inputs{}
	for name, raw := range input.Body.Inputs {
		prm, ok := d.Input(name)
		if !ok {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("unknown input %q", name))
		}
		v, err := h.decodeInput(ctx, prm, raw)
		if err != nil {
			return nil, h.fail(input.ID, err)
		}
		in[name] = v
	}

	start := time.Now()
	out, err := h.svc.Registry.Execute(ctx, input.ID, in)
	if err != nil {
		return nil, h.fail(input.ID, err)
	}

	body := ExecuteBody{Process: input.ID, Outputs: make(map[string]any, len(out))}
	for name, v := range out {
		enc, n, err := encodeOutput(v)
		if err != nil {
			h.svc.Registry.Done(ctx, input.ID, start, err)
			return nil, h.fail(input.ID, err)
		}
		body.Outputs[name] = enc
		body.Features += n
	}
	h.svc.Registry.Done(ctx, input.ID, start, nil)

	if h.svc.Metrics != nil {
		h.svc.Metrics.AddFeatures(input.ID, body.Features)
	}
	h.publish(service.Event{Process: input.ID, Status: process.StatusOK, Features: body.Features})
	log.Info().Int("features", body.Features).Msg("process executed")

	return &struct{ Body ExecuteBody }{Body: body}, nil
}

func (h *APIHandler) publish(e service.Event) {
	if h.svc.Bus != nil {
		h.svc.Bus.Publish(e)
	}
}

// fail publishes a failure event and maps err to an HTTP error.
func (h *APIHandler) fail(id string, err error) error {
	h.publish(service.Event{Process: id, Status: process.StatusFailed, Error: err.Error()})

	var (
		status huma.StatusError
		se     *feature.SchemaError
		ge     *feature.GeometryError
		te     *feature.TypeMismatchError
	)
	switch {
	case errors.As(err, &status):
		return status
	case errors.Is(err, process.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &se), errors.As(err, &ge), errors.As(err, &te):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}

func (h *APIHandler) decodeInput(ctx context.Context, prm process.Parameter, raw any) (any, error) {
	switch prm.Type {
	case process.TypePoint:
		return decodePoint(prm.Name, raw)
	case process.TypeGeometry:
		return decodeGeometry(prm.Name, raw)
	case process.TypeFeatureCollection:
		return h.decodeCollection(ctx, prm.Name, raw)
	}
	// Scalars arrive already decoded by encoding/json.
	return raw, nil
}

func decodePoint(name string, raw any) (orb.Point, error) {
	if pair, ok := raw.([]any); ok {
		if len(pair) == 2 {
			x, okx := pair[0].(float64)
			y, oky := pair[1].(float64)
			if okx && oky {
				return orb.Point{x, y}, nil
			}
		}
		return orb.Point{}, &feature.TypeMismatchError{Name: name, Want: process.TypePoint, Got: fmt.Sprintf("array %v", raw)}
	}
	g, err := decodeGeometry(name, raw)
	if err != nil {
		return orb.Point{}, err
	}
	p, ok := g.(orb.Point)
	if !ok {
		return orb.Point{}, &feature.TypeMismatchError{Name: name, Want: process.TypePoint, Got: g.GeoJSONType()}
	}
	return p, nil
}

func decodeGeometry(name string, raw any) (orb.Geometry, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil || g.Geometry() == nil {
		return nil, &feature.TypeMismatchError{Name: name, Want: "GeoJSON geometry", Got: string(data)}
	}
	return g.Geometry(), nil
}

func (h *APIHandler) decodeCollection(ctx context.Context, name string, raw any) (*feature.Collection, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &feature.TypeMismatchError{Name: name, Want: process.TypeFeatureCollection, Got: fmt.Sprintf("%T", raw)}
	}

	if src, ok := obj["source"].(string); ok {
		if h.svc.Source == nil {
			return nil, errors.New("no source directory configured")
		}
		c, err := h.svc.Source.Open(src)
		if err != nil {
			return nil, &feature.TypeMismatchError{Name: name, Want: "readable GeoJSON source", Got: err.Error()}
		}
		return c, nil
	}

	if table, ok := obj["table"].(string); ok {
		if h.svc.DB == nil {
			return nil, huma.Error503ServiceUnavailable("Database not available")
		}
		geomCol, _ := obj["geometryColumn"].(string)
		return db.TableCollection(ctx, h.svc.DB, table, geomCol)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &feature.TypeMismatchError{Name: name, Want: "GeoJSON FeatureCollection", Got: err.Error()}
	}
	return feature.FromGeoJSON(name, fc)
}

// encodeOutput converts an output value to its JSON form and counts features.
func encodeOutput(v any) (any, int, error) {
	switch v := v.(type) {
	case *feature.Collection:
		fc, err := feature.ToGeoJSON(v)
		if err != nil {
			return nil, 0, err
		}
		return fc, len(fc.Features), nil
	case orb.Geometry:
		return geojson.NewGeometry(v), 0, nil
	}
	return v, 0, nil
}
