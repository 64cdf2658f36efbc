package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/integrators"
	"github.com/san-kum/cartsim/internal/physics"
)

const (
	DefaultTStart     = 0.0
	DefaultTEnd       = 100.0
	DefaultSamples    = integrators.DefaultSamples
	DefaultIntegrator = "rk45"
)

// Config is the on-disk run description. Physical constants are pointers so
// that a missing key can be told apart from an explicit zero.
type Config struct {
	Name              string    `yaml:"name,omitempty" json:"name,omitempty"`
	Dof               int       `yaml:"dof" json:"dof"`
	InitialConditions []float64 `yaml:"initialConditions" json:"initialConditions"`

	M *float64 `yaml:"M,omitempty" json:"M,omitempty"`
	K *float64 `yaml:"k,omitempty" json:"k,omitempty"`
	C *float64 `yaml:"c,omitempty" json:"c,omitempty"`
	A *float64 `yaml:"A,omitempty" json:"A,omitempty"`
	F *float64 `yaml:"f,omitempty" json:"f,omitempty"`

	Mass    *float64 `yaml:"m,omitempty" json:"m,omitempty"`
	Length  *float64 `yaml:"L,omitempty" json:"L,omitempty"`
	Gravity *float64 `yaml:"g,omitempty" json:"g,omitempty"`

	Forcing      string `yaml:"forcing,omitempty" json:"forcing,omitempty"`
	CouplingTerm string `yaml:"couplingTerm,omitempty" json:"couplingTerm,omitempty"`

	Run RunConfig `yaml:"run" json:"run"`
}

type RunConfig struct {
	TStart     float64 `yaml:"tStart" json:"tStart"`
	TEnd       float64 `yaml:"tEnd" json:"tEnd"`
	Samples    int     `yaml:"samples" json:"samples"`
	Integrator string  `yaml:"integrator" json:"integrator"`
	RTol       float64 `yaml:"rtol,omitempty" json:"rtol,omitempty"`
	ATol       float64 `yaml:"atol,omitempty" json:"atol,omitempty"`
	MaxStep    float64 `yaml:"maxStep,omitempty" json:"maxStep,omitempty"`
	Dt         float64 `yaml:"dt,omitempty" json:"dt,omitempty"`
}

func DefaultRun() RunConfig {
	return RunConfig{
		TStart:     DefaultTStart,
		TEnd:       DefaultTEnd,
		Samples:    DefaultSamples,
		Integrator: DefaultIntegrator,
	}
}

// Default is a free cart: M=10, c=10, no spring,
// no drive, pushed with unit velocity.
func Default() *Config {
	return &Config{
		Name:              "free_cart",
		Dof:               1,
		InitialConditions: []float64{0, 1},
		M:                 Float(10),
		K:                 Float(0),
		C:                 Float(10),
		A:                 Float(0),
		F:                 Float(0.2),
		Run:               DefaultRun(),
	}
}

func Float(v float64) *float64 { return &v }

// Load reads a YAML or JSON config. Run settings absent from the file keep
// their defaults; physical constants are checked by ParameterSet.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{Run: DefaultRun()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, &dynamo.ConfigurationError{Reason: strings.Join(te.Errors, "; ")}
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes JSON when path ends in .json and YAML otherwise.
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParameterSet validates the record and builds the physical parameters.
func (c *Config) ParameterSet() (physics.ParameterSet, error) {
	topology, err := physics.TopologyFromDof(c.Dof)
	if err != nil {
		return physics.ParameterSet{}, err
	}

	type field struct {
		name string
		v    *float64
	}
	required := []field{
		{"M", c.M}, {"k", c.K}, {"c", c.C}, {"A", c.A}, {"f", c.F},
	}
	if topology != physics.Cart {
		required = append(required, field{"m", c.Mass}, field{"L", c.Length}, field{"g", c.Gravity})
	}
	for _, r := range required {
		if r.v == nil {
			return physics.ParameterSet{}, &dynamo.ConfigurationError{Field: r.name, Reason: "missing"}
		}
	}

	cart := physics.CartParams{M: *c.M, K: *c.K, C: *c.C, A: *c.A, F: *c.F}
	var pend physics.PendulumParams
	if topology != physics.Cart {
		pend = physics.PendulumParams{Mass: *c.Mass, Length: *c.Length, Gravity: *c.Gravity}
	}

	var opts []physics.Option
	if c.Forcing != "" {
		opts = append(opts, physics.WithWaveform(physics.Waveform(c.Forcing)))
	}
	if c.CouplingTerm != "" {
		opts = append(opts, physics.WithCoupling(physics.CouplingTerm(c.CouplingTerm)))
	}

	ps, err := physics.NewParameterSet(topology, cart, pend, opts...)
	if err != nil {
		return physics.ParameterSet{}, err
	}
	if err := ps.ValidateState(c.InitialConditions); err != nil {
		return physics.ParameterSet{}, err
	}
	return ps, nil
}

// FromParameterSet records ps with the given initial state.
func FromParameterSet(ps physics.ParameterSet, y0 []float64, run RunConfig) *Config {
	p := ps.Cart()
	cfg := &Config{
		Dof:               ps.Dof(),
		InitialConditions: append([]float64(nil), y0...),
		M:                 Float(p.M),
		K:                 Float(p.K),
		C:                 Float(p.C),
		A:                 Float(p.A),
		F:                 Float(p.F),
		Forcing:           string(ps.Waveform()),
		Run:               run,
	}
	if pend, ok := ps.Pendulum(); ok {
		cfg.Mass = Float(pend.Mass)
		cfg.Length = Float(pend.Length)
		cfg.Gravity = Float(pend.Gravity)
		cfg.CouplingTerm = string(ps.Coupling())
	}
	return cfg
}

// Span is the integration interval of the run block.
func (c *Config) Span() dynamo.Span {
	return dynamo.Span{Start: c.Run.TStart, End: c.Run.TEnd}
}

// SolverOptions maps the run block onto integrator options.
func (c *Config) SolverOptions() integrators.Options {
	return integrators.Options{
		RTol:    c.Run.RTol,
		ATol:    c.Run.ATol,
		MaxStep: c.Run.MaxStep,
		Dt:      c.Run.Dt,
		Samples: c.Run.Samples,
	}
}

// Validate checks the run block. Physical values are checked by ParameterSet.
func (c *Config) Validate() error {
	if err := c.Span().Validate(); err != nil {
		return err
	}
	if c.Run.Samples < 0 {
		return &dynamo.ConfigurationError{Field: "run.samples", Reason: "must not be negative"}
	}
	for name, v := range map[string]float64{"run.rtol": c.Run.RTol, "run.atol": c.Run.ATol, "run.maxStep": c.Run.MaxStep, "run.dt": c.Run.Dt} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &dynamo.ConfigurationError{Field: name, Reason: "must be finite and not negative"}
		}
	}
	if _, err := integrators.Lookup(c.Integrator()); err != nil {
		return err
	}
	return nil
}

// Integrator is the configured solver name, defaulting to rk45.
func (c *Config) Integrator() string {
	if c.Run.Integrator == "" {
		return DefaultIntegrator
	}
	return c.Run.Integrator
}
