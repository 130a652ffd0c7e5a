// Package sweep runs one pipeline per value of a single parameter.
package sweep

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stepviz/internal/experiment"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/metrics"
)

type Sweep struct {
	Param  string
	Values []float64
}

// Point is the outcome of one run. Err holds parameter errors so that an
// invalid value does not abort the rest of the sweep.
type Point struct {
	Value   float64
	Report  *experiment.Report
	Metrics metrics.Result
	Err     error
}

type Runner struct {
	Registry *experiment.Registry
	Log      *zap.Logger
	// Limit bounds concurrent runs. Zero or less means unbounded.
	Limit int
}

// Run evaluates every value of s against base. Results keep input order.
// Only context cancellation stops the sweep early.
func (r *Runner) Run(ctx context.Context, base experiment.Options, s Sweep) ([]Point, error) {
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("sweep %s: no values", s.Param)
	}
	if _, err := base.Param(s.Param); err != nil {
		return nil, err
	}

	registry := r.Registry
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	log := logging.OrNop(r.Log)

	points := make([]Point, len(s.Values))
	g, gctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}

	for i, v := range s.Values {
		i, v := i, v
		g.Go(func() error {
			opts, err := base.WithParam(s.Param, v)
			if err != nil {
				return err
			}
			points[i].Value = v

			report, err := experiment.Run(gctx, opts, registry, log)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Debug("sweep point failed", zap.String("param", s.Param), zap.Float64("value", v), zap.Error(err))
				points[i].Err = err
				return nil
			}
			points[i].Report = report
			points[i].Metrics = report.Metrics
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Run is Runner{Registry: registry, Limit: limit}.Run.
func Run(ctx context.Context, base experiment.Options, s Sweep, registry *experiment.Registry, limit int) ([]Point, error) {
	r := &Runner{Registry: registry, Limit: limit}
	return r.Run(ctx, base, s)
}

// Linspace returns min, min+step, ... up to and including max.
func Linspace(min, max, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("step must be positive, got %g", step)
	}
	if math.IsNaN(min) || math.IsNaN(max) || max < min {
		return nil, fmt.Errorf("invalid range [%g, %g]", min, max)
	}

	n := int(math.Floor((max-min)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out, nil
}
