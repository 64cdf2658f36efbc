package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
)

func shortCart() *config.Config {
	cfg := config.Default()
	cfg.Run.TEnd = 5
	cfg.Run.Samples = 51
	return cfg
}

func TestRunSweep_Order(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      shortCart(),
		ParamName: "c",
		ParamMin:  1,
		ParamMax:  20,
		NumSteps:  8,
		Workers:   3,
	}
	results, err := RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("got %d results, want 8", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].ParamValue <= results[i-1].ParamValue {
			t.Errorf("results out of order at %d: %v after %v", i, results[i].ParamValue, results[i-1].ParamValue)
		}
		// more damping leaves less velocity
		if results[i].FinalState[1] >= results[i-1].FinalState[1] {
			t.Errorf("c=%g final velocity %g not below c=%g's %g",
				results[i].ParamValue, results[i].FinalState[1], results[i-1].ParamValue, results[i-1].FinalState[1])
		}
	}
	if results[0].MaxEnergy < results[0].MinEnergy {
		t.Errorf("energy range inverted: %+v", results[0])
	}
}

func TestRunSweep_InvalidValueFails(t *testing.T) {
	sweep := &ParameterSweep{Base: shortCart(), ParamName: "M", ParamMin: 0, ParamMax: 1, NumSteps: 3}
	_, err := RunSweep(context.Background(), sweep)
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestSetParam(t *testing.T) {
	cfg := shortCart()
	if err := SetParam(cfg, "k", 3); err != nil {
		t.Fatal(err)
	}
	if *cfg.K != 3 {
		t.Errorf("k = %g, want 3", *cfg.K)
	}
	if err := SetParam(cfg, "zeta", 1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}

	for _, name := range []string{"m", "L", "g"} {
		var ce *dynamo.ConfigurationError
		if err := SetParam(cfg, name, 1); !errors.As(err, &ce) || ce.Field != name {
			t.Errorf("SetParam(%s) on a free cart: got %v, want ConfigurationError", name, err)
		}
	}
	if cfg.Mass != nil {
		t.Errorf("rejected key still written: m = %g", *cfg.Mass)
	}

	pend := config.GetPreset("cart_pendulum")
	if err := SetParam(pend, "L", 2); err != nil {
		t.Fatalf("SetParam(L) on a pendulum: %v", err)
	}
	if *pend.Length != 2 {
		t.Errorf("L = %g, want 2", *pend.Length)
	}
}

func TestRunSweep_PendulumKeyOnFreeCart(t *testing.T) {
	sweep := &ParameterSweep{Base: shortCart(), ParamName: "m", ParamMin: 1, ParamMax: 100, NumSteps: 3}
	results, err := RunSweep(context.Background(), sweep)
	var ce *dynamo.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "m" {
		t.Errorf("got %v, want ConfigurationError on m", err)
	}
	if results != nil {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestScenario(t *testing.T) {
	dir := t.TempDir()
	step := shortCart()
	step.Name = "from_file"
	if err := config.Save(filepath.Join(dir, "cart.yaml"), step); err != nil {
		t.Fatal(err)
	}

	scenarioYAML := `name: demo
description: three ways to name a run
steps:
  - config: cart.yaml
  - preset: driven_spring_cart
    params:
      A: 0
    save_as: quiet_spring
  - inline:
      dof: 1
      initialConditions: [1, 0]
      M: 1
      k: 1
      c: 0
      A: 0
      f: 0
      run:
        tEnd: 2
        samples: 21
`
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	var seen []string
	results, err := RunScenario(context.Background(), sc, func(i, n int, name string) {
		seen = append(seen, name)
	})
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 3 || len(seen) != 3 {
		t.Fatalf("got %d results, %d callbacks, want 3", len(results), len(seen))
	}
	if results[0].Name != "from_file" || results[1].Name != "quiet_spring" {
		t.Errorf("names = %q, %q", results[0].Name, results[1].Name)
	}
	if *results[1].Config.A != 0 {
		t.Errorf("param override not applied: A = %g", *results[1].Config.A)
	}
	if results[2].Trajectory.Len() != 21 {
		t.Errorf("inline step produced %d samples, want 21", results[2].Trajectory.Len())
	}
}

func TestScenario_EmptyStep(t *testing.T) {
	_, err := RunScenario(context.Background(), &Scenario{Steps: []ScenarioStep{{}}}, nil)
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestRunMonteCarlo_Deterministic(t *testing.T) {
	cfg := &MonteCarloConfig{
		Base:         shortCart(),
		Perturbation: 0.1,
		NumTrials:    6,
		Seed:         42,
		Workers:      2,
	}
	a, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].TrialID != i {
			t.Errorf("trial %d has id %d", i, a[i].TrialID)
		}
		for j := range a[i].InitState {
			if a[i].InitState[j] != b[i].InitState[j] {
				t.Fatalf("trial %d init differs between seeded runs", i)
			}
		}
	}
	stable, unstable := MonteCarloStats(a)
	if stable != 6 || unstable != 0 {
		t.Errorf("stable=%d unstable=%d, want 6/0", stable, unstable)
	}
}

func TestRunMonteCarlo_BadInput(t *testing.T) {
	tests := []struct {
		name         string
		trials       int
		perturbation float64
		field        string
	}{
		{"negative trials", -1, 0.1, "trials"},
		{"zero trials", 0, 0.1, "trials"},
		{"negative perturbation", 3, -0.1, "perturbation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
				Base:         shortCart(),
				NumTrials:    tt.trials,
				Perturbation: tt.perturbation,
				Seed:         1,
			})
			var ce *dynamo.ConfigurationError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("err = %v, want ConfigurationError on %s", err, tt.field)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	cfg := shortCart()
	cfg.Run.Dt = 0.01
	out, err := Compare(context.Background(), cfg, "rk45", "rk4")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d comparisons, want 2", len(out))
	}
	if out[0].MaxDeviation != 0 {
		t.Errorf("reference deviation = %g, want 0", out[0].MaxDeviation)
	}
	if out[1].MaxDeviation > 1e-2 {
		t.Errorf("rk4 deviates from rk45 by %g", out[1].MaxDeviation)
	}
}
