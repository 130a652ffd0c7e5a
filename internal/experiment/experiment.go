// Package experiment wires transfer function assembly, simulation and
// metric extraction into one pipeline run.
package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/dynamo"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/lti"
	"github.com/san-kum/stepviz/internal/metrics"
)

type Options struct {
	System           string  `json:"system"`
	Gain             float64 `json:"k"`
	TimeConstant     float64 `json:"tau,omitempty"`
	Damping          float64 `json:"zeta,omitempty"`
	NaturalFrequency float64 `json:"wn,omitempty"`
	Solver           string  `json:"solver"`
	Samples          int     `json:"samples"`
	// Duration of zero means seven time constants of the slowest pole.
	Duration float64 `json:"duration,omitempty"`
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		System:           config.NormalizeSystem(cfg.System),
		Gain:             cfg.Params.Gain,
		TimeConstant:     cfg.Params.TimeConstant,
		Damping:          cfg.Params.Damping,
		NaturalFrequency: cfg.Params.NaturalFrequency,
		Solver:           cfg.Solver,
		Samples:          cfg.Samples,
		Duration:         cfg.Duration,
	}
}

// Validate checks the options that do not depend on the system type.
// Parameter bounds are enforced when the transfer function is assembled.
func (o Options) Validate() error {
	if o.System == "" {
		return fmt.Errorf("system is required")
	}
	if o.Solver == "" {
		return fmt.Errorf("solver is required")
	}
	if o.Samples != 0 && o.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d: %w", o.Samples, dynamo.ErrParameterBounds)
	}
	if o.Duration < 0 || math.IsNaN(o.Duration) || math.IsInf(o.Duration, 0) {
		return fmt.Errorf("duration must be finite and non-negative, got %g: %w", o.Duration, dynamo.ErrParameterBounds)
	}
	return nil
}

// Param returns a named parameter, using the names of the config package.
func (o Options) Param(name string) (float64, error) {
	return o.params().Get(name)
}

// WithParam returns a copy of o with one parameter replaced.
func (o Options) WithParam(name string, value float64) (Options, error) {
	p := o.params()
	if err := p.Set(name, value); err != nil {
		return o, err
	}
	o.Gain = p.Gain
	o.TimeConstant = p.TimeConstant
	o.Damping = p.Damping
	o.NaturalFrequency = p.NaturalFrequency
	return o, nil
}

func (o Options) params() config.ParamsConfig {
	return config.ParamsConfig{
		Gain:             o.Gain,
		TimeConstant:     o.TimeConstant,
		Damping:          o.Damping,
		NaturalFrequency: o.NaturalFrequency,
	}
}

// Report is everything one pipeline run produced.
type Report struct {
	ID               string               `json:"id"`
	Options          Options              `json:"options"`
	TransferFunction lti.TransferFunction `json:"transfer_function"`
	Poles            []complex128         `json:"-"`
	Stable           bool                 `json:"stable"`
	Response         lti.Response         `json:"response"`
	Metrics          metrics.Result       `json:"metrics"`
	Elapsed          time.Duration        `json:"elapsed_ns"`
}

type Experiment struct {
	opts     Options
	registry *Registry
	log      *zap.Logger
}

// New prepares an experiment. A nil registry uses NewRegistry and a nil
// logger discards output.
func New(opts Options, registry *Registry, log *zap.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{opts: opts, registry: registry, log: logging.OrNop(log)}
}

func (e *Experiment) Options() Options { return e.opts }

func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	build, err := e.registry.GetSystem(e.opts.System)
	if err != nil {
		return nil, err
	}
	solver, err := e.registry.GetSolver(e.opts.Solver)
	if err != nil {
		return nil, err
	}

	tf, err := build(e.opts)
	if err != nil {
		return nil, fmt.Errorf("assemble %s-order system: %w", e.opts.System, err)
	}
	e.log.Debug("assembled transfer function",
		zap.String("system", e.opts.System),
		zap.Float64s("num", tf.Num),
		zap.Float64s("den", tf.Den),
	)

	ss, err := tf.StateSpace()
	if err != nil {
		return nil, err
	}
	poles, err := ss.Poles()
	if err != nil {
		return nil, err
	}

	resp, err := lti.Simulate(ctx, tf, solver, lti.SimOptions{Samples: e.opts.Samples, Duration: e.opts.Duration})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	e.log.Debug("simulated step response",
		zap.String("solver", solver.Name()),
		zap.Int("samples", resp.Len()),
		zap.Float64("end", resp.Times[resp.Len()-1]),
	)

	// The unit step settles at K for both system types.
	result, err := metrics.Compute(resp.Times, resp.Output, e.opts.Gain)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	e.log.Debug("computed step metrics",
		zap.Stringer("rise_time", result.RiseTime),
		zap.Stringer("settling_time", result.SettlingTime),
		zap.Float64("peak_time", result.PeakTime),
		zap.Float64("overshoot", result.Overshoot),
	)

	return &Report{
		ID:               uuid.NewString(),
		Options:          e.opts,
		TransferFunction: tf,
		Poles:            poles,
		Stable:           lti.Stable(poles),
		Response:         resp,
		Metrics:          result,
		Elapsed:          time.Since(start),
	}, nil
}

// Run is a shorthand for New(opts, registry, log).Run(ctx).
func Run(ctx context.Context, opts Options, registry *Registry, log *zap.Logger) (*Report, error) {
	return New(opts, registry, log).Run(ctx)
}

// SystemTitle is the display name used in captions and figure titles.
func SystemTitle(system string) string {
	if config.NormalizeSystem(system) == config.SystemFirst {
		return "First-Order"
	}
	return "Second-Order"
}
