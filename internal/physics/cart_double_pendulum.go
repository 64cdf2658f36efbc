package physics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// maxCondition bounds the mass matrix condition number. Beyond it the
// accelerations are not trusted.
const maxCondition = 1e12

// DoublePendulumCart is a cart carrying two identical uniform rods linked
// end to end. Accelerations come from solving the 3×3 mass matrix system
// A·[ẍ, θ̈1, θ̈2] = b at every evaluation.
type DoublePendulumCart struct {
	ps ParameterSet
}

func (c *DoublePendulumCart) StateDim() int {
	return 6
}

func (c *DoublePendulumCart) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if err := checkDim(x, 6); err != nil {
		return nil, err
	}

	a, b := c.massSystem(x, t)
	acc, err := solveMassSystem(a, b, t)
	if err != nil {
		return nil, err
	}

	return dynamo.State{x[1], acc.AtVec(0), x[3], acc.AtVec(1), x[5], acc.AtVec(2)}, nil
}

func (c *DoublePendulumCart) massSystem(x dynamo.State, t float64) (*mat.SymDense, *mat.VecDense) {
	x1, x2, th1, th2, th3, th4 := x[0], x[1], x[2], x[3], x[4], x[5]
	p := c.ps.cart
	q := c.ps.pendulum
	M, m, g := p.M, q.Mass, q.Gravity
	I := m * q.Length * q.Length / 12
	r := q.Length / 2

	s1, c1 := math.Sincos(th1)
	s3, c3 := math.Sincos(th3)
	s13, c13 := math.Sincos(th1 - th3)

	a := mat.NewSymDense(3, []float64{
		M + 2*m, 3 * m * r * c1, m * r * c3,
		3 * m * r * c1, 5*m*r*r + I, 2 * m * r * r * c13,
		m * r * c3, 2 * m * r * r * c13, m*r*r + I,
	})
	b := mat.NewVecDense(3, []float64{
		3*m*r*th2*th2*s1 + m*r*th4*th4*s3 - p.K*x1 - p.C*x2 + c.ps.Forcing(t),
		-3*m*g*r*s1 - 2*m*r*r*th4*th4*s13,
		2*m*r*r*th2*th2*s13 - m*g*r*s3,
	})
	return a, b
}

func solveMassSystem(a mat.Matrix, b mat.Vector, t float64) (*mat.VecDense, error) {
	var lu mat.LU
	lu.Factorize(a)

	cond := lu.Cond()
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > maxCondition {
		return nil, &dynamo.SingularSystemError{Time: t, Cond: cond}
	}

	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, b); err != nil {
		var ce mat.Condition
		if errors.As(err, &ce) {
			return nil, &dynamo.SingularSystemError{Time: t, Cond: float64(ce)}
		}
		return nil, err
	}
	return &sol, nil
}

func (c *DoublePendulumCart) Energy(x dynamo.State) float64 {
	return Energy(c.ps, x).Total
}

func (c *DoublePendulumCart) Params() ParameterSet {
	return c.ps
}
