package metrics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Stability is the fraction of samples whose components are finite and
// within Bound. EscapeTime reports when the first bad sample was seen.
type Stability struct {
	Bound float64

	total, bad int
	escaped    bool
	escapeAt   float64
}

func NewStability(bound float64) *Stability {
	return &Stability{Bound: bound}
}

func (*Stability) Name() string { return "stability" }

func (s *Stability) within(x dynamo.State) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.Abs(v) > s.Bound {
			return false
		}
	}
	return true
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.total++
	if s.within(x) {
		return
	}
	s.bad++
	if !s.escaped {
		s.escaped, s.escapeAt = true, t
	}
}

func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.total-s.bad) / float64(s.total)
}

// EscapeTime is the time of the first sample outside Bound.
func (s *Stability) EscapeTime() (float64, bool) {
	return s.escapeAt, s.escaped
}

func (s *Stability) Reset() {
	*s = Stability{Bound: s.Bound}
}
