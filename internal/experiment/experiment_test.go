package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartsim/internal/config"
	"github.com/san-kum/cartsim/internal/dynamo"
)

func TestFromConfigRunsFreeCart(t *testing.T) {
	cfg := config.Default()
	cfg.Run.TEnd = 20
	cfg.Run.Samples = 201

	exp, err := FromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if traj.Dof != 1 || traj.Len() != 201 {
		t.Fatalf("dof=%d samples=%d", traj.Dof, traj.Len())
	}
	if traj.Times[200] != 20 {
		t.Errorf("last time = %v, want 20", traj.Times[200])
	}

	final := traj.Final()
	if math.Abs(final[1]) > 1e-3 || math.Abs(final[0]-1) > 1e-2 {
		t.Errorf("final state = %v, want cart at rest near x=1", final)
	}

	for _, name := range []string{"energy", "energy_drift", "stability", "peak_displacement", "settling_time", "wall_seconds"} {
		if _, ok := traj.Metrics[name]; !ok {
			t.Errorf("metric %q missing", name)
		}
	}
	if traj.Stats.Accepted == 0 {
		t.Error("no accepted steps recorded")
	}
}

func TestFromConfigRejectsUnknownIntegrator(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Integrator = "leapfrog"

	_, err := FromConfig(cfg)
	var ce *dynamo.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "integrator" {
		t.Errorf("err = %v, want integrator ConfigurationError", err)
	}
}

func TestFromConfigRejectsBadState(t *testing.T) {
	cfg := config.Default()
	cfg.InitialConditions = []float64{0, 1, 0}

	if _, err := FromConfig(cfg); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestRunWithoutSetup(t *testing.T) {
	exp := New(Config{Span: dynamo.Span{End: 1}})
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error for experiment without model")
	}
}

func TestRunCanceled(t *testing.T) {
	exp, err := FromConfig(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exp.Run(ctx); !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("err = %v, want ErrContextCanceled", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := r.ListTopologies(); len(got) != 3 || got[0] != "cart" {
		t.Errorf("topologies = %v", got)
	}
	topo, err := r.GetTopology("cart_double_pendulum")
	if err != nil || topo.Dof() != 3 {
		t.Errorf("GetTopology = %v, %v", topo, err)
	}
	if _, err := r.GetTopology("quadcopter"); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}

	names := r.ListIntegrators()
	want := []string{"euler", "rk4", "rk45"}
	if len(names) != len(want) {
		t.Fatalf("integrators = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("integrators[%d] = %s, want %s", i, names[i], want[i])
		}
		if _, err := r.GetIntegrator(names[i]); err != nil {
			t.Error(err)
		}
	}
}
