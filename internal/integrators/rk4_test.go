package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/stepviz/internal/dynamo"
)

// lag is dx/dt = (u - x)/tau, the smallest plant a step response is taken of.
type lag struct{ tau float64 }

func (l *lag) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{(u[0] - x[0]) / l.tau}
}

func (l *lag) StateDim() int   { return 1 }
func (l *lag) ControlDim() int { return 1 }

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestStepResponseOfLag(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 5e-3},
		{"rk4", NewRK4(), 1e-8},
		{"rk45", NewRK45(), 1e-8},
	}

	dyn := &lag{tau: 2}
	u := dynamo.Control{1}
	dt := 0.01

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := dynamo.State{0}
			for i := 0; i < 200; i++ {
				x = tt.integ.Step(dyn, x, u, float64(i)*dt, dt)
			}
			want := 1 - math.Exp(-1)
			if math.Abs(x[0]-want) > tt.tol {
				t.Errorf("x(tau) = %.8f, want %.8f", x[0], want)
			}
		})
	}
}

func TestRK4_ReusesScratchAcrossDimensions(t *testing.T) {
	integ := NewRK4()

	x1 := integ.Step(&lag{tau: 1}, dynamo.State{0}, dynamo.Control{1}, 0, 0.1)
	x2 := integ.Step(&harmonicOscillator{}, dynamo.State{1, 0}, nil, 0, 0.1)

	if len(x1) != 1 || len(x2) != 2 {
		t.Fatalf("unexpected state sizes %d, %d", len(x1), len(x2))
	}
	if !x1.IsValid() || !x2.IsValid() {
		t.Error("step produced invalid state")
	}
}
