package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-process/internal/feature"
	"github.com/joeblew999/geo-process/internal/logger"
)

// Recorder receives the outcome of each execution.
type Recorder interface {
	ObserveExecution(id, status string, elapsed time.Duration)
}

// Execution statuses reported to a Recorder.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// Registry holds processes by ID and validates invocations against their
// descriptors.
type Registry struct {
	mu        sync.RWMutex
	processes map[string]Process
	log       *zerolog.Logger
	rec       Recorder
}

// NewRegistry creates an empty registry. log and rec may be nil.
func NewRegistry(log *zerolog.Logger, rec Recorder) *Registry {
	return &Registry{processes: make(map[string]Process), log: log, rec: rec}
}

// Register adds p. IDs must be unique and parameter types known.
func (r *Registry) Register(p Process) error {
	d := p.Descriptor()
	if d.ID == "" {
		return fmt.Errorf("process has no id")
	}
	for _, params := range [][]Parameter{d.Inputs, d.Outputs} {
		for _, prm := range params {
			if err := checkType(prm); err != nil {
				return fmt.Errorf("process %q: %w", d.ID, err)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processes[d.ID]; exists {
		return fmt.Errorf("process %q already registered", d.ID)
	}
	r.processes[d.ID] = p
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(ps ...Process) {
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Get returns the process with the given ID.
func (r *Registry) Get(id string) (Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processes[id]
	return p, ok
}

// List returns all descriptors sorted by ID.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.processes))
	for _, p := range r.processes {
		out = append(out, p.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Execute validates in against the descriptor of process id, runs it and
// checks its outputs. Lazy outputs are returned unevaluated, so failures
// inside a feature stream surface when the caller consumes it. Rejected and
// failed executions are recorded here; the caller reports the final outcome
// with Done once the outputs have been consumed.
func (r *Registry) Execute(ctx context.Context, id string, in Inputs) (Outputs, error) {
	start := time.Now()
	log := logger.FromContext(logger.WithComponent(ctx, "process"), r.log)

	p, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	d := p.Descriptor()

	if err := validateInputs(d, in); err != nil {
		log.Warn().Str("process", id).Err(err).Msg("invalid inputs")
		r.observe(id, StatusRejected, start)
		return nil, err
	}

	out, err := p.Execute(ctx, in)
	if err != nil {
		log.Error().Str("process", id).Err(err).Msg("execution failed")
		r.observe(id, StatusFailed, start)
		return nil, err
	}
	for _, prm := range d.Outputs {
		v, present := out[prm.Name]
		if !present {
			err = fmt.Errorf("process %q did not produce output %q", id, prm.Name)
		} else {
			err = CheckValue(prm, v)
		}
		if err != nil {
			log.Error().Str("process", id).Err(err).Msg("invalid outputs")
			r.observe(id, StatusFailed, start)
			return nil, err
		}
	}

	return out, nil
}

// Done records the outcome of an execution whose outputs have been
// consumed. start is the time Execute was called.
func (r *Registry) Done(ctx context.Context, id string, start time.Time, err error) {
	log := logger.FromContext(logger.WithComponent(ctx, "process"), r.log)
	if err != nil {
		log.Error().Str("process", id).Err(err).Msg("execution failed")
		r.observe(id, StatusFailed, start)
		return
	}
	log.Debug().Str("process", id).Dur("elapsed", time.Since(start)).Msg("executed")
	r.observe(id, StatusOK, start)
}

func (r *Registry) observe(id, status string, start time.Time) {
	if r.rec != nil {
		r.rec.ObserveExecution(id, status, time.Since(start))
	}
}

func validateInputs(d Descriptor, in Inputs) error {
	for name := range in {
		if _, ok := d.Input(name); !ok {
			return &feature.TypeMismatchError{Name: name, Want: "no value (undeclared input)", Got: fmt.Sprintf("%T", in[name])}
		}
	}
	for _, prm := range d.Inputs {
		v, present := in[prm.Name]
		if !present || v == nil {
			if prm.Required {
				return mismatch(prm.Name, prm.Type, nil)
			}
			continue
		}
		if err := CheckValue(prm, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(p Parameter) error {
	switch p.Type {
	case TypePoint, TypeGeometry, TypeFeatureCollection, TypeDouble, TypeString:
		return nil
	}
	return fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
}
