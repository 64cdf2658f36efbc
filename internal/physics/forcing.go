package physics

import "math"

// Forcing is the external drive on the cart at time t.
func (ps ParameterSet) Forcing(t float64) float64 {
	if ps.waveform == Sine {
		return ps.cart.A * math.Sin(ps.w*t)
	}
	return ps.cart.A * math.Cos(ps.w*t)
}
