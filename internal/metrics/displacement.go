package metrics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// PeakDisplacement is the largest |x| of the cart.
type PeakDisplacement struct {
	name string
	peak float64
}

func NewPeakDisplacement() *PeakDisplacement {
	return &PeakDisplacement{
		name: "peak_displacement",
	}
}

func (p *PeakDisplacement) Name() string {
	return p.name
}

func (p *PeakDisplacement) Observe(x dynamo.State, t float64) {
	if len(x) > 0 {
		p.peak = math.Max(p.peak, math.Abs(x[0]))
	}
}

func (p *PeakDisplacement) Value() float64 {
	return p.peak
}

func (p *PeakDisplacement) Reset() {
	p.peak = 0
}

// SettlingTime is the last sample time at which |x - final x| exceeded
// tolerance. It needs the whole trajectory, so it is computed by Evaluate
// rather than observed.
func SettlingTime(traj *dynamo.Trajectory, tolerance float64) float64 {
	if traj.Len() == 0 {
		return 0
	}
	final := traj.Final()[0]
	settled := traj.Times[0]
	for i, s := range traj.States {
		if math.Abs(s[0]-final) > tolerance {
			settled = traj.Times[i]
		}
	}
	return settled
}
