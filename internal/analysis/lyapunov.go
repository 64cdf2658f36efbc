package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/integrators"
)

// LyapunovOptions tune LargestLyapunov. Zero values pick defaults.
type LyapunovOptions struct {
	Perturbation float64 // initial separation, default 1e-8
	Interval     float64 // time between renormalizations, default 1
	Solver       integrators.Options
}

func (o LyapunovOptions) withDefaults() LyapunovOptions {
	if o.Perturbation <= 0 {
		o.Perturbation = 1e-8
	}
	if o.Interval <= 0 {
		o.Interval = 1
	}
	if o.Solver.RTol == 0 {
		o.Solver.RTol = 1e-10
	}
	if o.Solver.ATol == 0 {
		o.Solver.ATol = 1e-12
	}
	return o
}

// LargestLyapunov estimates the largest Lyapunov exponent over span by
// following a reference and a perturbed trajectory and pulling the
// perturbed one back to the initial separation after every interval.
// A positive value indicates chaos.
func LargestLyapunov(ctx context.Context, sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts LyapunovOptions) (float64, error) {
	if err := span.Validate(); err != nil {
		return 0, err
	}
	if len(x0) == 0 {
		return 0, dynamo.ErrDimensionMismatch
	}
	opts = opts.withDefaults()
	d0 := opts.Perturbation

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0

	sumLog := 0.0
	for t := span.Start; t < span.End; {
		seg := dynamo.Span{Start: t, End: math.Min(t+opts.Interval, span.End)}
		end := []float64{seg.End}

		ref, err := integrators.Solve(ctx, sys, seg, x, end, opts.Solver)
		if err != nil {
			return 0, err
		}
		pert, err := integrators.Solve(ctx, sys, seg, xp, end, opts.Solver)
		if err != nil {
			return 0, err
		}
		x, xp = ref.Final(), pert.Final()

		d := xp.Sub(x).Norm()
		if d == 0 {
			return 0, errors.New("trajectories collapsed onto each other")
		}
		sumLog += math.Log(d / d0)
		xp = x.Add(xp.Sub(x).Scale(d0 / d))
		t = seg.End
	}

	return sumLog / span.Length(), nil
}
