// Package dynamo provides core simulation primitives for continuous-time
// systems.
//
// The package defines the fundamental interfaces and types used to
// integrate ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Input]: source of the control signal (a constant for step responses)
//   - [Simulator]: orchestrates fixed or adaptive step runs
//
// # Example
//
//	ss, _ := tf.StateSpace()
//	sim := dynamo.New(ss, integrators.NewRK4(), dynamo.NewStep(1))
//	result, _ := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe, and neither are the RK4
// scratch buffers. Build one simulator per goroutine.
package dynamo
