package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/integrators"
	"github.com/san-kum/cartsim/internal/physics"
)

// Registry names the topologies and solvers available to the CLI.
type Registry struct {
	topologies  map[string]physics.Topology
	integrators map[string]integrators.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		topologies:  make(map[string]physics.Topology),
		integrators: make(map[string]integrators.Solver),
	}

	for _, t := range []physics.Topology{physics.Cart, physics.CartPendulum, physics.CartDoublePendulum} {
		r.topologies[t.String()] = t
	}
	for _, name := range integrators.Names() {
		s, _ := integrators.Lookup(name)
		r.integrators[name] = s
	}

	return r
}

func (r *Registry) GetTopology(name string) (physics.Topology, error) {
	t, ok := r.topologies[name]
	if !ok {
		return 0, &dynamo.ConfigurationError{Field: "topology", Reason: fmt.Sprintf("unknown topology: %s", name)}
	}
	return t, nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Solver, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, &dynamo.ConfigurationError{Field: "integrator", Reason: fmt.Sprintf("unknown integrator: %s", name)}
	}
	return fn, nil
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListTopologies() []string {
	return sortedKeys(r.topologies)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
