package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/cartsim/internal/automation"
	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/experiment"
)

// GridSearch tries every combination of the given constant values and keeps
// the one that minimizes a run metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Result is the best combination found and the metric value it scored.
type Result struct {
	Params map[string]float64
	Value  float64
	Runs   int
}

// Search runs base once per grid point. A point whose run fails or leaves
// the stability bound at any sample is skipped; a bad parameter name or an
// unknown metric aborts.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Result{}, &dynamo.ConfigurationError{Field: "grid", Reason: fmt.Sprintf("%d names for %d ranges", len(g.paramNames), len(g.ranges))}
	}
	for _, name := range g.paramNames {
		if err := automation.SetParam(base.Clone(), name, 0); err != nil {
			return Result{}, err
		}
	}

	best := Result{Value: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, base, metricName, &best); err != nil {
		return Result{}, err
	}
	if best.Params == nil {
		return best, fmt.Errorf("no grid point of %d produced %s", best.Runs, metricName)
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *Result,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for name, v := range current {
			if err := automation.SetParam(cfg, name, v); err != nil {
				return err
			}
		}
		best.Runs++

		exp, err := experiment.FromConfig(cfg)
		if err != nil {
			return nil
		}
		traj, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return nil
		}

		if s, ok := traj.Metrics["stability"]; ok && s < 1 {
			return nil
		}
		val, ok := traj.Metrics[metricName]
		if !ok {
			return &dynamo.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metricName)}
		}
		if val < best.Value {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	return dynamo.Span{Start: lo, End: hi}.Linspace(n)
}
