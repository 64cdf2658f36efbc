package integrators

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Solver produces a trajectory for a system over a span.
type Solver func(ctx context.Context, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64, opts Options) (*dynamo.Trajectory, error)

func fixed(newStepper func() dynamo.Stepper) Solver {
	return func(ctx context.Context, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64, opts Options) (*dynamo.Trajectory, error) {
		return SolveFixed(ctx, newStepper(), sys, span, y0, tEval, opts)
	}
}

var registry = map[string]Solver{
	"rk45":  Solve,
	"rk4":   fixed(func() dynamo.Stepper { return NewRK4() }),
	"euler": fixed(func() dynamo.Stepper { return NewEuler() }),
}

// Lookup returns the solver registered under name.
func Lookup(name string) (Solver, error) {
	s, ok := registry[name]
	if !ok {
		return nil, &dynamo.ConfigurationError{Field: "integrator", Reason: fmt.Sprintf("unknown integrator %q", name)}
	}
	return s, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
