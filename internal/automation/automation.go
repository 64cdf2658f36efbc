package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/experiment"
	"github.com/san-kum/cartsim/internal/physics"
)

// Scenario is an ordered list of runs described in one YAML file.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep names either a preset, a config file (relative to the
// scenario) or an inline config. Params override single values.
type ScenarioStep struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Inline *config.Config     `yaml:"inline"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// StepResult pairs a scenario step with its trajectory.
type StepResult struct {
	Name       string
	Config     *config.Config
	Trajectory *dynamo.Trajectory
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		if p := scenario.Steps[i].Config; p != "" && !filepath.IsAbs(p) {
			scenario.Steps[i].Config = filepath.Join(dir, p)
		}
	}
	return &scenario, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Inline != nil:
		cfg = s.Inline.Clone()
		if cfg.Run == (config.RunConfig{}) {
			cfg.Run = config.DefaultRun()
		}
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, &dynamo.ConfigurationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", s.Preset)}
		}
	default:
		return nil, &dynamo.ConfigurationError{Field: "step", Reason: "needs preset, config or inline"}
	}

	for name, v := range s.Params {
		if err := SetParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes the steps in order. onStep, when set, is called
// before each step.
func RunScenario(ctx context.Context, scenario *Scenario, onStep func(i, n int, name string)) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if onStep != nil {
			onStep(i+1, len(scenario.Steps), cfg.Name)
		}

		exp, err := experiment.FromConfig(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		traj, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: cfg.Name, Config: cfg, Trajectory: traj})
	}

	return results, nil
}

// SetParam overwrites one physical constant of cfg by its file key. The
// pendulum keys are rejected on a free cart, which would ignore them.
func SetParam(cfg *config.Config, name string, v float64) error {
	targets := map[string]**float64{
		"M": &cfg.M, "k": &cfg.K, "c": &cfg.C, "A": &cfg.A, "f": &cfg.F,
		"m": &cfg.Mass, "L": &cfg.Length, "g": &cfg.Gravity,
	}
	p, ok := targets[name]
	if !ok {
		return &dynamo.ConfigurationError{Field: name, Reason: "unknown parameter"}
	}
	if cfg.Dof == physics.Cart.Dof() && (name == "m" || name == "L" || name == "g") {
		return &dynamo.ConfigurationError{Field: name, Reason: "not used by a free cart"}
	}
	*p = config.Float(v)
	return nil
}

// ParameterSweep varies one constant of Base over [ParamMin, ParamMax].
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Workers   int
}

type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	MaxEnergy  float64
	MinEnergy  float64
	Metrics    map[string]float64
	Stats      dynamo.Stats
}

// RunSweep runs every sweep point in parallel. Results keep the order of
// the parameter values; the first failure cancels the rest.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, &dynamo.ConfigurationError{Field: "steps", Reason: "must be at least 1"}
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, sweep.NumSteps)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(sweep.Workers))

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Base.Clone()
		if err := SetParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		g.Go(func() error {
			exp, err := experiment.FromConfig(cfg)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
			}
			traj, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
			}

			minE, maxE := energyRange(exp.Model(), traj)
			results[i] = SweepResult{
				ParamValue: paramVal,
				FinalState: traj.Final(),
				MaxEnergy:  maxE,
				MinEnergy:  minE,
				Metrics:    traj.Metrics,
				Stats:      traj.Stats,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func energyRange(model physics.Model, traj *dynamo.Trajectory) (minE, maxE float64) {
	if traj.Len() == 0 {
		return 0, 0
	}
	minE, maxE = math.Inf(1), math.Inf(-1)
	for _, s := range traj.States {
		e := model.Energy(s)
		minE = math.Min(minE, e)
		maxE = math.Max(maxE, e)
	}
	return minE, maxE
}

func workers(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}

// MonteCarloConfig perturbs the initial conditions of Base uniformly by
// ±Perturbation per component.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
	Bound        float64 // |component| above Bound marks a trial unstable
}

type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool
}

// RunMonteCarlo draws all initial states up front from one seeded source,
// so results do not depend on scheduling.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, &dynamo.ConfigurationError{Field: "trials", Reason: "must be at least 1"}
	}
	if cfg.Perturbation < 0 || math.IsNaN(cfg.Perturbation) {
		return nil, &dynamo.ConfigurationError{Field: "perturbation", Reason: "must not be negative"}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range inits {
		s := make(dynamo.State, len(cfg.Base.InitialConditions))
		for i, v := range cfg.Base.InitialConditions {
			s[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		inits[trial] = s
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(cfg.Workers))

	for trial, init := range inits {
		c := cfg.Base.Clone()
		c.InitialConditions = init.Clone()

		g.Go(func() error {
			exp, err := experiment.FromConfig(c)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			traj, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}

			final := traj.Final()
			stable := final.IsValid()
			for _, v := range final {
				if math.Abs(v) > bound {
					stable = false
					break
				}
			}
			results[trial] = MonteCarloResult{
				TrialID:    trial,
				InitState:  init,
				FinalState: final,
				Stable:     stable,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// Comparison is one integrator's run of a shared config.
type Comparison struct {
	Integrator   string
	Trajectory   *dynamo.Trajectory
	Elapsed      time.Duration
	MaxDeviation float64 // largest |x| difference from the first integrator
}

// Compare runs cfg once per integrator on the same output grid.
func Compare(ctx context.Context, cfg *config.Config, names ...string) ([]Comparison, error) {
	out := make([]Comparison, 0, len(names))
	for _, name := range names {
		c := cfg.Clone()
		c.Run.Integrator = name

		exp, err := experiment.FromConfig(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		start := time.Now()
		traj, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		cmp := Comparison{Integrator: name, Trajectory: traj, Elapsed: time.Since(start)}
		if len(out) > 0 {
			ref := out[0].Trajectory
			for i := range traj.States {
				if i < ref.Len() {
					cmp.MaxDeviation = math.Max(cmp.MaxDeviation, math.Abs(traj.States[i][0]-ref.States[i][0]))
				}
			}
		}
		out = append(out, cmp)
	}
	return out, nil
}
