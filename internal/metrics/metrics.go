package metrics

import (
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

// StabilityThreshold bounds every state component for the stability metric.
const StabilityThreshold = 1e3

// Default returns the metrics recorded for every run of model.
func Default(model physics.Model) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(model.Params()),
		NewEnergyDrift(model),
		NewStability(StabilityThreshold),
		NewPeakDisplacement(),
	}
}

// Evaluate feeds every sample of traj to each metric and collects the values.
func Evaluate(traj *dynamo.Trajectory, ms ...dynamo.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms)+1)
	for _, m := range ms {
		m.Reset()
		for i, s := range traj.States {
			m.Observe(s, traj.Times[i])
		}
		out[m.Name()] = m.Value()
		if s, ok := m.(*Stability); ok {
			if at, escaped := s.EscapeTime(); escaped {
				out["escape_time"] = at
			}
		}
	}
	out["settling_time"] = SettlingTime(traj, 1e-3)
	return out
}
