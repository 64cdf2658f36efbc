// Package physics provides the cart models and their parameters.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the system's evolution:
//
//   - [FreeCart]: cart on a spring/damper (1 dof)
//   - [CartPendulum]: cart carrying a single rigid pendulum (2 dof)
//   - [CartDoublePendulum]: cart carrying a two-link pendulum (3 dof)
//
// Models are built from an immutable [ParameterSet] by [NewModel], which is
// the only place the topology is dispatched on. All models also implement
// [dynamo.Hamiltonian].
//
// # Energy
//
// Use [Energy] for the kinetic/potential split of a state:
//
//	e := physics.Energy(ps, state)
//	fmt.Println(e.Kinetic, e.Potential, e.Total)
package physics
