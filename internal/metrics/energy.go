package metrics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

// Energy is the mean total mechanical energy over the observed samples.
// Samples of the wrong length for the parameter set are ignored.
type Energy struct {
	ps  physics.ParameterSet
	sum float64
	n   int
}

func NewEnergy(ps physics.ParameterSet) *Energy {
	return &Energy{ps: ps}
}

func (*Energy) Name() string { return "energy" }

func (e *Energy) Observe(x dynamo.State, t float64) {
	if len(x) == e.ps.StateDim() {
		e.sum += physics.Energy(e.ps, x).Total
		e.n++
	}
}

func (e *Energy) Value() float64 {
	if e.n == 0 {
		return 0
	}
	return e.sum / float64(e.n)
}

func (e *Energy) Reset() { e.sum, e.n = 0, 0 }

// EnergyDrift is the largest |E - E0| / |E0| seen, where E0 is the energy of
// the first sample. A run starting at zero energy reports 0.
type EnergyDrift struct {
	h       dynamo.Hamiltonian
	e0      float64
	started bool
	worst   float64
}

func NewEnergyDrift(h dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{h: h}
}

func (*EnergyDrift) Name() string { return "energy_drift" }

func (d *EnergyDrift) Observe(x dynamo.State, t float64) {
	e := d.h.Energy(x)
	if !d.started {
		d.e0, d.started = e, true
		return
	}
	if d.e0 != 0 {
		d.worst = math.Max(d.worst, math.Abs(e-d.e0)/math.Abs(d.e0))
	}
}

func (d *EnergyDrift) Value() float64 { return d.worst }

func (d *EnergyDrift) Reset() { d.e0, d.started, d.worst = 0, false, 0 }
