package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/integrators"
	"github.com/san-kum/cartsim/internal/physics"
)

// BifurcationPoint lists the distinct stroboscopic values of one channel
// for a parameter value.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// BifurcationConfig describes a sweep of one named parameter. After the
// transient, the channel is sampled once per forcing period.
type BifurcationConfig struct {
	Base      physics.ParameterSet
	X0        dynamo.State
	Param     string
	Min, Max  float64
	Steps     int
	Channel   int
	Transient float64
	Periods   int
	Tolerance float64 // values closer than this count as one, default 1e-3
	Solver    integrators.Options
}

// BifurcationDiagram runs the sweep sequentially. Each parameter value
// starts again from X0.
func BifurcationDiagram(ctx context.Context, cfg BifurcationConfig) ([]BifurcationPoint, error) {
	if cfg.Steps < 2 {
		cfg.Steps = 2
	}
	if cfg.Periods <= 0 {
		cfg.Periods = 50
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-3
	}
	if cfg.Solver.RTol == 0 {
		cfg.Solver.RTol = 1e-8
		cfg.Solver.ATol = 1e-10
	}
	if cfg.Channel < 0 || cfg.Channel >= cfg.Base.StateDim() {
		return nil, fmt.Errorf("%w: channel %d for dof %d", dynamo.ErrDimensionMismatch, cfg.Channel, cfg.Base.Dof())
	}

	step := (cfg.Max - cfg.Min) / float64(cfg.Steps-1)
	results := make([]BifurcationPoint, 0, cfg.Steps)

	for i := 0; i < cfg.Steps; i++ {
		param := cfg.Min + float64(i)*step
		ps, err := cfg.Base.With(cfg.Param, param)
		if err != nil {
			return nil, err
		}
		f := ps.Cart().F
		if f <= 0 {
			return nil, &dynamo.ConfigurationError{Field: "f", Reason: "stroboscopic sampling needs a positive forcing frequency"}
		}
		period := 1 / f

		model, err := physics.NewModel(ps)
		if err != nil {
			return nil, err
		}

		tEval := make([]float64, cfg.Periods)
		for k := range tEval {
			tEval[k] = cfg.Transient + float64(k)*period
		}
		span := dynamo.Span{Start: 0, End: tEval[len(tEval)-1]}

		traj, err := integrators.Solve(ctx, model, span, cfg.X0, tEval, cfg.Solver)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", cfg.Param, param, err)
		}

		results = append(results, BifurcationPoint{
			Param:  param,
			Values: distinct(traj.Channel(cfg.Channel), cfg.Tolerance),
		})
	}

	return results, nil
}

func distinct(values []float64, tol float64) []float64 {
	var out []float64
	for _, v := range values {
		seen := false
		for _, u := range out {
			if math.Abs(u-v) < tol {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}

// BifurcationToASCII plots one column per parameter value.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 1 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Values {
			minVal, maxVal = math.Min(minVal, v), math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}
