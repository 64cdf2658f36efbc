package physics

import (
	"fmt"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// FreeCart is a cart on a linear spring and damper with no pendulum.
type FreeCart struct {
	ps ParameterSet
}

func (c *FreeCart) StateDim() int {
	return 2
}

func (c *FreeCart) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if err := checkDim(x, 2); err != nil {
		return nil, err
	}
	p := c.ps.cart
	drive := c.ps.Forcing(t) - p.K*x[0] - p.C*x[1]
	return dynamo.State{x[1], drive / p.M}, nil
}

func (c *FreeCart) Energy(x dynamo.State) float64 {
	return Energy(c.ps, x).Total
}

func (c *FreeCart) Params() ParameterSet {
	return c.ps
}

func checkDim(x dynamo.State, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: state has %d values, want %d", dynamo.ErrDimensionMismatch, len(x), n)
	}
	return nil
}
