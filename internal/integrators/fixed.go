package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// countingSystem tallies Derive calls made by a Stepper.
type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	c.calls++
	return c.System.Derive(x, t)
}

// SolveFixed integrates with a fixed step of opts.Dt using stepper. The last
// step is shortened to land on span.End. Output sampling matches Solve.
func SolveFixed(ctx context.Context, stepper dynamo.Stepper, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64, opts Options) (*dynamo.Trajectory, error) {
	opts = opts.withDefaults()
	tEval, err := prepare(sys, span, y0, tEval, opts)
	if err != nil {
		return nil, err
	}

	counted := &countingSystem{System: sys}
	out := newSampler(tEval)

	t := span.Start
	x := y0.Clone()
	f, err := counted.Derive(x, t)
	if err != nil {
		return nil, &dynamo.SimulationError{Step: 0, Time: t, State: x, Wrapped: err}
	}
	out.emit(t, x, f, t, x, f)

	steps := int(math.Ceil(span.Length()/opts.Dt - 1e-9))
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)}
		}

		tNew := span.Start + float64(step+1)*opts.Dt
		if step == steps-1 || tNew > span.End {
			tNew = span.End
		}

		xNew, err := stepper.Step(counted, x, t, tNew-t)
		if err == nil && !xNew.IsValid() {
			err = dynamo.ErrInvalidState
		}
		var fNew dynamo.State
		if err == nil {
			fNew, err = counted.Derive(xNew, tNew)
		}
		if err != nil {
			return nil, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: err}
		}

		out.emit(t, x, f, tNew, xNew, fNew)
		t, x, f = tNew, xNew, fNew
	}

	return &dynamo.Trajectory{
		Dof:    len(y0) / 2,
		Times:  out.times,
		States: out.states,
		Stats:  dynamo.Stats{Accepted: steps, Evaluations: counted.calls},
	}, nil
}
