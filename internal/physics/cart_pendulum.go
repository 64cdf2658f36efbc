package physics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// PendulumCart is a cart carrying one uniform rod pivoted at its end.
// The rod's moment of inertia about the pivot is mL²/3.
type PendulumCart struct {
	ps ParameterSet
}

func (c *PendulumCart) StateDim() int {
	return 4
}

// Derive returns the state derivative. The denominator is not guarded; a
// vanishing one shows up as a non-finite derivative.
func (c *PendulumCart) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if err := checkDim(x, 4); err != nil {
		return nil, err
	}

	x1, x2, th1, th2 := x[0], x[1], x[2], x[3]
	p := c.ps.cart
	q := c.ps.pendulum
	M, m, g := p.M, q.Mass, q.Gravity
	I := m * q.Length * q.Length / 3
	r := q.Length / 2

	sin, cos := math.Sincos(th1)
	drive := c.ps.Forcing(t) - p.K*x1 - p.C*x2
	den := I*(M+m) - m*m*r*r*cos*cos

	coupling := th1 * th1
	if c.ps.coupling == CouplingVelocity {
		coupling = th2 * th2
	}

	x2dot := (m*m*r*r*g*sin*cos + I*m*r*th2*th2*sin + I*drive) / den
	th2dot := (-(M+m)*m*g*r*sin - m*r*cos*(m*r*coupling*sin+drive)) / den

	return dynamo.State{x2, x2dot, th2, th2dot}, nil
}

func (c *PendulumCart) Energy(x dynamo.State) float64 {
	return Energy(c.ps, x).Total
}

func (c *PendulumCart) Params() ParameterSet {
	return c.ps
}
