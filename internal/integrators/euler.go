package integrators

import "github.com/san-kum/stepviz/internal/dynamo"

// Euler is the explicit first-order method. It is only useful as a
// baseline when comparing solvers.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	axpy(result, x, dt, dx)
	return result
}

// axpy stores x + a*y in dst.
func axpy(dst, x dynamo.State, a float64, y dynamo.State) {
	for i := range dst {
		dst[i] = x[i] + a*y[i]
	}
}
