// Package dynamo provides the core simulation primitives for the cart models.
//
// The package defines the fundamental types shared by the physics models,
// the integrators and the presentation layer:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Stepper]: fixed-step numerical integrator interface
//   - [Trajectory]: sampled, dof-tagged output of a simulation run
//
// # Example
//
//	ps, _ := physics.NewParameterSet(physics.Cart, physics.CartParams{M: 10, C: 10}, physics.PendulumParams{})
//	dyn, _ := physics.NewModel(ps)
//	traj, err := integrators.Solve(ctx, dyn, dynamo.Span{0, 100}, x0, nil, integrators.DefaultOptions())
//
// # Errors
//
// Every failure surfaced by a run matches one of the sentinel errors in this
// package through [errors.Is].
package dynamo
