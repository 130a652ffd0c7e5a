package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	input      Input
}

func New(dyn System, integrator Integrator, input Input) *Simulator {
	if input == nil {
		input = NewStep(0)
	}
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		input:      input,
	}
}

// Run integrates the system from x0 over [0, cfg.Duration]. The returned
// result always holds the samples accepted so far, even on error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("initial state has %d entries, system has %d: %w", len(x0), s.dyn.StateDim(), ErrDimensionMismatch)
	}

	capacity := int(cfg.Duration/cfg.Dt) + 1
	result := &Result{
		States:   make([]State, 0, capacity),
		Controls: make([]Control, 0, capacity),
		Times:    make([]float64, 0, capacity),
	}

	x := x0.Clone()
	s.record(result, x, 0)

	if cfg.Adaptive {
		return s.runAdaptive(ctx, result, x, cfg)
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u := s.input.Compute(x, t)
		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)

		if cfg.ValidateState && !x.IsValid() {
			return result, &SimulationError{Step: i, Time: t, State: x, Wrapped: ErrInvalidState}
		}

		result.StepsTaken++
		s.record(result, x, float64(i+1)*cfg.Dt)
	}

	return result, nil
}

func (s *Simulator) runAdaptive(ctx context.Context, result *Result, x State, cfg Config) (*Result, error) {
	t := 0.0
	dt := cfg.Dt
	end := cfg.Duration
	eps := 1e-12 * math.Max(1, end)

	for end-t > eps {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		h := math.Min(dt, end-t)
		u := s.input.Compute(x, t)

		newX, next, err := s.adaptiveStep(x, u, t, h, cfg)
		if errors.Is(err, ErrStepRejected) {
			result.Rejected++
			if next < cfg.MinDt {
				return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x, Wrapped: ErrStepTooSmall}
			}
			dt = next
			continue
		}
		if err != nil {
			return result, &SimulationError{Step: result.StepsTaken, Time: t, State: x, Wrapped: err}
		}

		if cfg.ValidateState && !newX.IsValid() {
			return result, &SimulationError{Step: result.StepsTaken, Time: t, State: newX, Wrapped: ErrInvalidState}
		}

		x = newX
		t += h
		if end-t <= eps {
			t = end
		}
		result.StepsTaken++
		s.record(result, x, t)

		dt = math.Max(cfg.MinDt, math.Min(next, cfg.MaxDt))
	}

	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	u := s.input.Compute(x, t)
	result.States = append(result.States, x.Clone())
	result.Controls = append(result.Controls, u)
	result.Times = append(result.Times, t)
	if obs, ok := s.dyn.(Observable); ok {
		result.Outputs = append(result.Outputs, obs.Output(x, u))
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if cfg.MinDt <= 0 || cfg.MaxDt < cfg.MinDt {
			return fmt.Errorf("invalid adaptive step bounds [%g, %g]", cfg.MinDt, cfg.MaxDt)
		}
	}
	return nil
}

// adaptiveStep falls back to step doubling for integrators without an
// embedded error estimate.
func (s *Simulator) adaptiveStep(x State, u Control, t, dt float64, cfg Config) (State, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.dyn, x, u, t, dt, cfg.Tolerance)
	}

	x1 := s.integrator.Step(s.dyn, x, u, t, dt)
	xHalf := s.integrator.Step(s.dyn, x, u, t, dt/2)
	x2 := s.integrator.Step(s.dyn, xHalf, u, t+dt/2, dt/2)

	err := x1.Sub(x2).Norm()

	if err > cfg.Tolerance {
		return nil, dt / 2, ErrStepRejected
	}

	next := dt
	if err < cfg.Tolerance/10 {
		next = dt * 2
	}

	return x2, next, nil
}
