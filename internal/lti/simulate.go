package lti

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultSamples matches the point count of the usual step routine.
	DefaultSamples = 100
	// horizonTimeConstants is how many slowest time constants are simulated.
	horizonTimeConstants = 7.0
)

// Response is a sampled unit step response.
type Response struct {
	Times  []float64 `json:"times"`
	Output []float64 `json:"output"`
}

func (r Response) Len() int { return len(r.Times) }

// Final returns the last output sample, or NaN for an empty response.
func (r Response) Final() float64 {
	if len(r.Output) == 0 {
		return math.NaN()
	}
	return r.Output[len(r.Output)-1]
}

type SimOptions struct {
	// Samples is the number of grid points for fixed-grid solvers.
	Samples int
	// Duration overrides the horizon derived from the poles when positive.
	Duration float64
}

// Solver computes the unit step response of a realization on [0, end].
type Solver interface {
	Name() string
	Solve(ctx context.Context, ss *StateSpace, end float64, samples int) (Response, error)
}

// Simulate returns the unit step response of tf.
func Simulate(ctx context.Context, tf TransferFunction, solver Solver, opts SimOptions) (Response, error) {
	ss, err := tf.StateSpace()
	if err != nil {
		return Response{}, err
	}

	samples := opts.Samples
	if samples == 0 {
		samples = DefaultSamples
	}
	if samples < 2 {
		return Response{}, fmt.Errorf("need at least 2 samples, got %d: %w", samples, dynamo.ErrParameterBounds)
	}

	end := opts.Duration
	if end < 0 || math.IsNaN(end) || math.IsInf(end, 0) {
		return Response{}, fmt.Errorf("duration must be positive, got %g: %w", end, dynamo.ErrParameterBounds)
	}
	if end == 0 {
		end, err = Horizon(ss)
		if err != nil {
			return Response{}, err
		}
	}

	return solver.Solve(ctx, ss, end, samples)
}

// Horizon is seven time constants of the slowest pole.
func Horizon(ss *StateSpace) (float64, error) {
	poles, err := ss.Poles()
	if err != nil {
		return 0, err
	}
	return horizonTimeConstants / slowestRate(poles), nil
}

// Linspace returns n evenly spaced points from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	span := end - start
	for i := range out {
		out[i] = start + span*float64(i)/float64(n-1)
	}
	out[n-1] = end
	return out
}

// ZOH discretizes the realization exactly for a piecewise-constant input.
type ZOH struct{}

func NewZOH() *ZOH { return &ZOH{} }

func (z *ZOH) Name() string { return "zoh" }

func (z *ZOH) Solve(ctx context.Context, ss *StateSpace, end float64, samples int) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	n := ss.StateDim()
	times := Linspace(0, end, samples)
	dt := end / float64(samples-1)

	// exp([[A B]; [0 0]] dt) = [[Ad Bd]; [0 I]]
	aug := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, ss.A.At(i, j)*dt)
		}
		aug.Set(i, n, ss.B.AtVec(i)*dt)
	}
	var e mat.Dense
	e.Exp(aug)
	ad := e.Slice(0, n, 0, n)
	bd := e.Slice(0, n, n, n+1).(*mat.Dense).ColView(0)

	out := make([]float64, samples)
	x := mat.NewVecDense(n, nil)
	var next mat.VecDense
	for k := range times {
		out[k] = mat.Dot(ss.C, x) + ss.D
		if !isFinite(out[k]) {
			return Response{}, &dynamo.SimulationError{Step: k, Time: times[k], State: dynamo.State(x.RawVector().Data), Wrapped: dynamo.ErrInvalidState}
		}
		next.MulVec(ad, x)
		next.AddVec(&next, bd)
		x.CopyVec(&next)
	}

	return Response{Times: times, Output: out}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Integrated drives a dynamo integrator over the realization.
type Integrated struct {
	name      string
	newInteg  func() dynamo.Integrator
	adaptive  bool
	Tolerance float64
}

func NewIntegrated(name string, newInteg func() dynamo.Integrator, adaptive bool) *Integrated {
	return &Integrated{
		name:      name,
		newInteg:  newInteg,
		adaptive:  adaptive,
		Tolerance: 1e-6,
	}
}

func (in *Integrated) Name() string { return in.name }

func (in *Integrated) Solve(ctx context.Context, ss *StateSpace, end float64, samples int) (Response, error) {
	grid := end / float64(samples-1)

	cfg := dynamo.DefaultConfig()
	cfg.Dt = grid
	cfg.Duration = end
	cfg.ValidateState = true
	if in.adaptive {
		cfg.Adaptive = true
		cfg.Tolerance = in.Tolerance
		cfg.MaxDt = grid
		cfg.MinDt = 1e-12 * end
		cfg.Dt = grid / 10
	}

	sim := dynamo.New(ss, in.newInteg(), dynamo.NewStep(1))
	result, err := sim.Run(ctx, make(dynamo.State, ss.StateDim()), cfg)
	if err != nil {
		return Response{}, fmt.Errorf("%s solver: %w", in.name, err)
	}

	return Response{Times: result.Times, Output: result.Outputs}, nil
}
