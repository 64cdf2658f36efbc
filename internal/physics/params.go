package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Topology selects the mechanical system. Its value is the number of
// degrees of freedom.
type Topology int

const (
	Cart               Topology = 1
	CartPendulum       Topology = 2
	CartDoublePendulum Topology = 3
)

func (t Topology) Dof() int { return int(t) }

func (t Topology) String() string {
	switch t {
	case Cart:
		return "cart"
	case CartPendulum:
		return "cart_pendulum"
	case CartDoublePendulum:
		return "cart_double_pendulum"
	default:
		return fmt.Sprintf("topology(%d)", int(t))
	}
}

// TopologyFromDof maps a degrees-of-freedom count onto a Topology.
func TopologyFromDof(dof int) (Topology, error) {
	switch Topology(dof) {
	case Cart, CartPendulum, CartDoublePendulum:
		return Topology(dof), nil
	}
	return 0, &dynamo.ConfigurationError{Field: "dof", Reason: fmt.Sprintf("must be 1, 2 or 3, got %d", dof)}
}

// Waveform is the shape of the sinusoidal drive.
type Waveform string

const (
	Cosine Waveform = "cos"
	Sine   Waveform = "sin"
)

// CouplingTerm selects the quadratic angle term in the single pendulum's
// angular equation.
type CouplingTerm string

const (
	// CouplingPosition squares the pendulum angle, as in the recorded model.
	CouplingPosition CouplingTerm = "position"
	// CouplingVelocity squares the angular velocity (the Lagrangian form).
	CouplingVelocity CouplingTerm = "velocity"
)

// CartParams are required for every topology.
type CartParams struct {
	M float64 // cart mass
	K float64 // spring constant
	C float64 // damping coefficient
	A float64 // forcing amplitude
	F float64 // forcing frequency in Hz
}

// PendulumParams are required when the topology has a pendulum.
type PendulumParams struct {
	Mass    float64
	Length  float64
	Gravity float64
}

type Option func(*ParameterSet)

func WithWaveform(w Waveform) Option {
	return func(ps *ParameterSet) { ps.waveform = w }
}

func WithCoupling(c CouplingTerm) Option {
	return func(ps *ParameterSet) { ps.coupling = c }
}

// ParameterSet is the validated, read-only set of physical constants for a
// run. The zero value is not usable; build one with NewParameterSet.
type ParameterSet struct {
	topology Topology
	cart     CartParams
	pendulum PendulumParams
	w        float64
	waveform Waveform
	coupling CouplingTerm
}

// NewParameterSet validates the parameters required by topology. Pendulum
// parameters are ignored for Cart.
func NewParameterSet(topology Topology, cart CartParams, pendulum PendulumParams, opts ...Option) (ParameterSet, error) {
	ps := ParameterSet{
		topology: topology,
		cart:     cart,
		waveform: Cosine,
		coupling: CouplingPosition,
	}
	for _, opt := range opts {
		opt(&ps)
	}

	if _, err := TopologyFromDof(int(topology)); err != nil {
		return ParameterSet{}, err
	}

	checks := []paramCheck{
		{"M", cart.M, true},
		{"k", cart.K, false},
		{"c", cart.C, false},
		{"A", cart.A, false},
		{"f", cart.F, false},
	}
	if topology != Cart {
		ps.pendulum = pendulum
		checks = append(checks,
			paramCheck{"m", pendulum.Mass, true},
			paramCheck{"L", pendulum.Length, true},
			paramCheck{"g", pendulum.Gravity, true},
		)
	}
	for _, c := range checks {
		if err := checkValue(c.field, c.value, c.positive); err != nil {
			return ParameterSet{}, err
		}
	}

	switch ps.waveform {
	case Cosine, Sine:
	default:
		return ParameterSet{}, &dynamo.ConfigurationError{Field: "forcing", Reason: fmt.Sprintf("unknown waveform %q", ps.waveform)}
	}
	switch ps.coupling {
	case CouplingPosition, CouplingVelocity:
	default:
		return ParameterSet{}, &dynamo.ConfigurationError{Field: "couplingTerm", Reason: fmt.Sprintf("unknown coupling term %q", ps.coupling)}
	}

	ps.w = 2 * math.Pi * cart.F
	return ps, nil
}

// paramCheck is one constant to validate; positive excludes zero.
type paramCheck struct {
	field    string
	value    float64
	positive bool
}

func checkValue(field string, v float64, positive bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &dynamo.ConfigurationError{Field: field, Reason: "must be finite"}
	}
	if positive && v <= 0 {
		return &dynamo.ConfigurationError{Field: field, Reason: fmt.Sprintf("must be positive, got %g", v)}
	}
	if !positive && v < 0 {
		return &dynamo.ConfigurationError{Field: field, Reason: fmt.Sprintf("must not be negative, got %g", v)}
	}
	return nil
}

func (ps ParameterSet) Topology() Topology        { return ps.topology }
func (ps ParameterSet) Dof() int                  { return ps.topology.Dof() }
func (ps ParameterSet) StateDim() int             { return 2 * ps.topology.Dof() }
func (ps ParameterSet) Cart() CartParams          { return ps.cart }
func (ps ParameterSet) Waveform() Waveform        { return ps.waveform }
func (ps ParameterSet) Coupling() CouplingTerm    { return ps.coupling }
func (ps ParameterSet) AngularFrequency() float64 { return ps.w }

// Pendulum reports false for Cart, whose pendulum parameters are never set.
func (ps ParameterSet) Pendulum() (PendulumParams, bool) {
	if ps.topology == Cart {
		return PendulumParams{}, false
	}
	return ps.pendulum, true
}

// ValidateState checks x against the state layout of the topology.
func (ps ParameterSet) ValidateState(x []float64) error {
	if len(x) != ps.StateDim() {
		return &dynamo.ConfigurationError{
			Field:  "initialConditions",
			Reason: fmt.Sprintf("dof %d needs %d values, got %d", ps.Dof(), ps.StateDim(), len(x)),
		}
	}
	if !dynamo.State(x).IsValid() {
		return &dynamo.ConfigurationError{Field: "initialConditions", Reason: "must be finite"}
	}
	return nil
}

// Params flattens the set into the configuration-file key space.
func (ps ParameterSet) Params() map[string]float64 {
	out := map[string]float64{
		"dof": float64(ps.Dof()),
		"M":   ps.cart.M,
		"k":   ps.cart.K,
		"c":   ps.cart.C,
		"A":   ps.cart.A,
		"f":   ps.cart.F,
		"w":   ps.w,
	}
	if p, ok := ps.Pendulum(); ok {
		out["m"] = p.Mass
		out["L"] = p.Length
		out["g"] = p.Gravity
	}
	return out
}

// With returns a copy with one configuration-file key replaced, revalidated.
func (ps ParameterSet) With(name string, value float64) (ParameterSet, error) {
	cart, pend := ps.cart, ps.pendulum
	switch name {
	case "M":
		cart.M = value
	case "k":
		cart.K = value
	case "c":
		cart.C = value
	case "A":
		cart.A = value
	case "f":
		cart.F = value
	case "m":
		pend.Mass = value
	case "L":
		pend.Length = value
	case "g":
		pend.Gravity = value
	default:
		return ParameterSet{}, &dynamo.ConfigurationError{Field: name, Reason: "unknown parameter"}
	}
	if ps.topology == Cart && (name == "m" || name == "L" || name == "g") {
		return ParameterSet{}, &dynamo.ConfigurationError{Field: name, Reason: "not used by a free cart"}
	}
	return NewParameterSet(ps.topology, cart, pend, WithWaveform(ps.waveform), WithCoupling(ps.coupling))
}
