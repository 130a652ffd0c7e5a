// Package lti assembles first and second order transfer functions and
// simulates their unit step response.
//
// A [TransferFunction] is realized in controllable canonical form as a
// [StateSpace] backed by gonum matrices. [Simulate] picks a time horizon
// from the slowest pole when none is given and hands the realization to a
// [Solver]:
//
//   - [ZOH]: exact zero-order-hold discretization through the matrix
//     exponential, on a uniform grid
//   - [Integrated]: any [dynamo.Integrator], fixed step or adaptive
//
// # Example
//
//	tf, err := lti.SecondOrder(1, 0.7, 1)
//	resp, err := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{})
package lti
