package physics

import (
	"fmt"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Model is a dynamo.System that also reports energy and its parameters.
type Model interface {
	dynamo.System
	dynamo.Hamiltonian
	Params() ParameterSet
}

// NewModel selects the dynamics for the topology of ps.
func NewModel(ps ParameterSet) (Model, error) {
	switch ps.topology {
	case Cart:
		return &FreeCart{ps: ps}, nil
	case CartPendulum:
		return &PendulumCart{ps: ps}, nil
	case CartDoublePendulum:
		return &DoublePendulumCart{ps: ps}, nil
	default:
		return nil, &dynamo.ConfigurationError{Field: "dof", Reason: fmt.Sprintf("unsupported topology %d", int(ps.topology))}
	}
}
