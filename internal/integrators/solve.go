package integrators

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/cartsim/internal/dynamo"
)

const DefaultSamples = 1001

// Options tunes the solvers. Zero fields take their DefaultOptions value.
type Options struct {
	RTol      float64
	ATol      float64
	MaxStep   float64 // upper bound on the adaptive step; 0 means the span length
	FirstStep float64 // 0 selects the initial step automatically
	Dt        float64 // fixed-step methods only
	Samples   int     // size of the default output grid
}

func DefaultOptions() Options {
	return Options{
		RTol:    1e-3,
		ATol:    1e-6,
		Dt:      0.01,
		Samples: DefaultSamples,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RTol <= 0 {
		o.RTol = d.RTol
	}
	if o.ATol <= 0 {
		o.ATol = d.ATol
	}
	if o.Dt <= 0 {
		o.Dt = d.Dt
	}
	if o.Samples <= 0 {
		o.Samples = d.Samples
	}
	return o
}

// Solve integrates sys from y0 over span with adaptive Dormand-Prince steps
// and samples the solution at tEval by cubic Hermite interpolation between
// accepted steps. A nil tEval samples opts.Samples evenly spaced points.
//
// Any error from sys.Derive stops the run and is returned inside a
// *dynamo.SimulationError.
func Solve(ctx context.Context, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64, opts Options) (*dynamo.Trajectory, error) {
	opts = opts.withDefaults()
	tEval, err := prepare(sys, span, y0, tEval, opts)
	if err != nil {
		return nil, err
	}

	maxStep := opts.MaxStep
	if maxStep <= 0 || maxStep > span.Length() {
		maxStep = span.Length()
	}

	rk := NewRK45()
	out := newSampler(tEval)

	t := span.Start
	x := y0.Clone()
	f, err := rk.derive(sys, x, t)
	if err != nil {
		return nil, &dynamo.SimulationError{Step: 0, Time: t, State: x, Wrapped: err}
	}
	out.emit(t, x, f, t, x, f)

	h := opts.FirstStep
	if h <= 0 {
		h, err = rk.initialStep(sys, x, f, t, span.End, opts.RTol, opts.ATol)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: 0, Time: t, State: x, Wrapped: err}
		}
	}
	h = math.Min(h, maxStep)

	var stats dynamo.Stats
	step := 0
	for t < span.End {
		if err := ctx.Err(); err != nil {
			return nil, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)}
		}

		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		rejected := false
		for {
			if h < minStep {
				return nil, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: dynamo.ErrStepTooSmall}
			}

			dt := h
			tNew := t + dt
			if tNew >= span.End {
				tNew = span.End
				dt = tNew - t
			}

			res, err := rk.attempt(sys, x, f, t, dt)
			if err != nil {
				return nil, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: err}
			}

			norm := errorNorm(res.err, x, res.x, opts.RTol, opts.ATol)
			if norm < 1 {
				h = math.Min(maxStep, h*rk.nextScale(norm, true, rejected))
				out.emit(t, x, f, tNew, res.x, res.k7)
				t, x, f = tNew, res.x, res.k7
				stats.Accepted++
				step++
				break
			}
			h *= rk.nextScale(norm, false, false)
			rejected = true
			stats.Rejected++
		}
	}

	stats.Evaluations = rk.evals
	return &dynamo.Trajectory{
		Dof:    len(y0) / 2,
		Times:  out.times,
		States: out.states,
		Stats:  stats,
	}, nil
}

// initialStep follows Hairer, Nørsett and Wanner's starting step heuristic.
func (r *RK45) initialStep(sys dynamo.System, x, f dynamo.State, t, end, rtol, atol float64) (float64, error) {
	n := len(x)
	scale := make([]float64, n)
	for i := range x {
		scale[i] = atol + math.Abs(x[i])*rtol
	}

	d0 := rmsScaled(x, scale)
	d1 := rmsScaled(f, scale)
	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, end-t)

	probe := make(dynamo.State, n)
	for i := range x {
		probe[i] = x[i] + h0*f[i]
	}
	f1, err := r.derive(sys, probe, t+h0)
	if err != nil {
		return 0, err
	}

	diff := f1.Sub(f)
	d2 := rmsScaled(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), -errorExponent)
	}

	return math.Min(math.Min(100*h0, h1), end-t), nil
}

func rmsScaled(v dynamo.State, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		q := v[i] / scale[i]
		sum += q * q
	}
	return math.Sqrt(sum / float64(len(v)))
}

// prepare validates the problem and returns the output grid.
func prepare(sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64, opts Options) ([]float64, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}
	if len(y0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d values, system needs %d", dynamo.ErrDimensionMismatch, len(y0), sys.StateDim())
	}
	if !y0.IsValid() {
		return nil, &dynamo.ConfigurationError{Field: "initialConditions", Reason: "must be finite"}
	}

	if tEval == nil {
		return span.Linspace(opts.Samples), nil
	}
	if len(tEval) == 0 {
		return nil, &dynamo.ConfigurationError{Field: "tEval", Reason: "no sample times"}
	}
	if !sort.Float64sAreSorted(tEval) {
		return nil, &dynamo.ConfigurationError{Field: "tEval", Reason: "sample times must be ascending"}
	}
	if tEval[0] < span.Start || tEval[len(tEval)-1] > span.End {
		return nil, &dynamo.ConfigurationError{Field: "tEval", Reason: fmt.Sprintf("sample times must lie in [%g, %g]", span.Start, span.End)}
	}
	return tEval, nil
}

// sampler fills the output grid from consecutive accepted steps.
type sampler struct {
	grid   []float64
	next   int
	times  []float64
	states []dynamo.State
}

func newSampler(grid []float64) *sampler {
	return &sampler{
		grid:   grid,
		times:  make([]float64, 0, len(grid)),
		states: make([]dynamo.State, 0, len(grid)),
	}
}

// emit records every grid point in [t0, t1] using the Hermite cubic through
// (x0, f0) and (x1, f1).
func (s *sampler) emit(t0 float64, x0, f0 dynamo.State, t1 float64, x1, f1 dynamo.State) {
	h := t1 - t0
	for s.next < len(s.grid) && s.grid[s.next] <= t1 {
		tq := s.grid[s.next]
		var xq dynamo.State
		switch {
		case tq == t1:
			xq = x1.Clone()
		case h == 0 || tq <= t0:
			xq = x0.Clone()
		default:
			xq = hermite((tq-t0)/h, h, x0, f0, x1, f1)
		}
		s.times = append(s.times, tq)
		s.states = append(s.states, xq)
		s.next++
	}
}

func hermite(u, h float64, x0, f0, x1, f1 dynamo.State) dynamo.State {
	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	out := make(dynamo.State, len(x0))
	for i := range x0 {
		out[i] = h00*x0[i] + h10*h*f0[i] + h01*x1[i] + h11*h*f1[i]
	}
	return out
}
