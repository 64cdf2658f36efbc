package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a first-order ODE. Derive must be a pure function of (x, t):
// integrators call it at intermediate stages that never appear in the output.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Stepper advances a System by one fixed step.
type Stepper interface {
	Step(dyn System, x State, t, dt float64) (State, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Span is the closed integration interval [Start, End].
type Span struct {
	Start float64
	End   float64
}

func (s Span) Length() float64 { return s.End - s.Start }

func (s Span) Validate() error {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return &ConfigurationError{Field: "span", Reason: fmt.Sprintf("[%g, %g] is not finite", s.Start, s.End)}
	}
	if s.End <= s.Start {
		return &ConfigurationError{Field: "span", Reason: fmt.Sprintf("end %g must be after start %g", s.End, s.Start)}
	}
	return nil
}

// Linspace returns n evenly spaced samples over the span, endpoints included.
func (s Span) Linspace(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{s.Start}
	}
	out := make([]float64, n)
	step := s.Length() / float64(n-1)
	for i := range out {
		out[i] = s.Start + float64(i)*step
	}
	out[n-1] = s.End
	return out
}

type Stats struct {
	Accepted    int `json:"accepted"`
	Rejected    int `json:"rejected"`
	Evaluations int `json:"evaluations"`
}

// Trajectory is the sampled output of one run. Dof tells the presentation
// layer how many angle channels the states carry.
type Trajectory struct {
	Dof     int
	Times   []float64
	States  []State
	Metrics map[string]float64
	Stats   Stats
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Channel extracts component i of every sample.
func (tr *Trajectory) Channel(i int) []float64 {
	out := make([]float64, len(tr.States))
	for j, s := range tr.States {
		if i < len(s) {
			out[j] = s[i]
		}
	}
	return out
}

func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// ChannelName labels state component i for a given dof.
func ChannelName(dof, i int) string {
	names := []string{"x", "x_dot", "theta1", "theta1_dot", "theta2", "theta2_dot"}
	if i < 0 || i >= 2*dof || i >= len(names) {
		return fmt.Sprintf("x%d", i)
	}
	return names[i]
}
