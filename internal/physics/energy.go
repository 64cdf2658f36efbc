package physics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// EnergyBreakdown splits the mechanical energy of a state. Potential energy
// of each rod is measured from its pivot, so a hanging rod is negative.
type EnergyBreakdown struct {
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Total     float64 `json:"total"`
}

// Energy returns the mechanical energy of x. The state must match the
// layout of ps; a short state yields NaN.
func Energy(ps ParameterSet, x dynamo.State) EnergyBreakdown {
	if len(x) != ps.StateDim() {
		nan := math.NaN()
		return EnergyBreakdown{nan, nan, nan}
	}

	p := ps.cart
	xd := x[1]
	T := 0.5 * p.M * xd * xd
	V := 0.5 * p.K * x[0] * x[0]

	if ps.topology >= CartPendulum {
		q := ps.pendulum
		m, L, g := q.Mass, q.Length, q.Gravity
		I := m * L * L / 12
		r := L / 2

		th, thd := x[2], x[3]
		sin, cos := math.Sincos(th)
		T += 0.5*m*(xd*xd+r*r*thd*thd+2*r*xd*thd*cos) + 0.5*I*thd*thd
		V -= m * g * r * cos

		if ps.topology == CartDoublePendulum {
			th2, th2d := x[4], x[5]
			sin2, cos2 := math.Sincos(th2)
			vx := xd + L*thd*cos + r*th2d*cos2
			vy := L*thd*sin + r*th2d*sin2
			T += 0.5*m*(vx*vx+vy*vy) + 0.5*I*th2d*th2d
			V -= m*g*L*cos + m*g*r*cos2
		}
	}

	return EnergyBreakdown{Kinetic: T, Potential: V, Total: T + V}
}

// EnergySeries evaluates Energy along a trajectory.
func EnergySeries(ps ParameterSet, traj *dynamo.Trajectory) []EnergyBreakdown {
	out := make([]EnergyBreakdown, len(traj.States))
	for i, s := range traj.States {
		out[i] = Energy(ps, s)
	}
	return out
}
