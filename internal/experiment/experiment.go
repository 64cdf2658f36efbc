package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/integrators"
	"github.com/san-kum/cartsim/internal/metrics"
	"github.com/san-kum/cartsim/internal/physics"
)

var defaultRegistry = NewRegistry()

type Config struct {
	Name       string
	Integrator string
	InitState  []float64
	Span       dynamo.Span
	TEval      []float64
	Options    integrators.Options
}

// Experiment binds a model, a solver and its metrics into one run.
type Experiment struct {
	cfg     Config
	model   physics.Model
	solver  integrators.Solver
	metrics []dynamo.Metric
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// FromConfig resolves a config file record into a ready experiment.
func FromConfig(c *config.Config) (*Experiment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ps, err := c.ParameterSet()
	if err != nil {
		return nil, err
	}
	model, err := physics.NewModel(ps)
	if err != nil {
		return nil, err
	}

	exp := New(Config{
		Name:       c.Name,
		Integrator: c.Integrator(),
		InitState:  c.InitialConditions,
		Span:       c.Span(),
		Options:    c.SolverOptions(),
	})
	if err := exp.Setup(model, metrics.Default(model)); err != nil {
		return nil, err
	}
	return exp, nil
}

func (e *Experiment) Setup(model physics.Model, ms []dynamo.Metric) error {
	name := e.cfg.Integrator
	if name == "" {
		name = config.DefaultIntegrator
	}
	solver, err := defaultRegistry.GetIntegrator(name)
	if err != nil {
		return err
	}
	e.model = model
	e.solver = solver
	e.metrics = ms
	return nil
}

// Run integrates the model and attaches metric values to the trajectory.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Trajectory, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0 := make(dynamo.State, len(e.cfg.InitState))
	copy(x0, e.cfg.InitState)

	start := time.Now()
	traj, err := e.solver(ctx, e.model, e.cfg.Span, x0, e.cfg.TEval, e.cfg.Options)
	if err != nil {
		return nil, err
	}
	traj.Dof = e.model.Params().Dof()
	traj.Metrics = metrics.Evaluate(traj, e.metrics...)
	traj.Metrics["wall_seconds"] = time.Since(start).Seconds()
	return traj, nil
}

func (e *Experiment) Model() physics.Model { return e.model }

func (e *Experiment) Config() Config { return e.cfg }
