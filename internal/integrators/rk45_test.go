package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/cartsim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	var err error
	for i := 0; i < 1000; i++ {
		x, err = integrator.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
	if math.Abs(x[0]-math.Cos(10)) > 1e-9 {
		t.Errorf("x(10) = %.12f, want %.12f", x[0], math.Cos(10))
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x, _ = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_ErrorEstimateShrinksWithStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}
	k1, _ := dyn.Derive(x0, 0)

	big, err := integrator.attempt(dyn, x0, k1, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	small, err := integrator.attempt(dyn, x0, k1, 0, 0.05)
	if err != nil {
		t.Fatal(err)
	}

	nBig := errorNorm(big.err, x0, big.x, 1e-6, 1e-9)
	nSmall := errorNorm(small.err, x0, small.x, 1e-6, 1e-9)
	if nSmall >= nBig {
		t.Errorf("error norm for dt=0.05 (%g) not below dt=0.5 (%g)", nSmall, nBig)
	}
}

func TestRK45_NextScale(t *testing.T) {
	r := NewRK45()
	tests := []struct {
		name        string
		norm        float64
		accepted    bool
		afterReject bool
		min, max    float64
	}{
		{"exact step grows to cap", 0, true, false, 10, 10},
		{"small error grows", 1e-5, true, false, 1, 10},
		{"growth blocked after reject", 1e-5, true, true, 0, 1},
		{"rejection shrinks", 4, false, false, 0.2, 1},
		{"huge error floors", 1e12, false, false, 0.2, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.nextScale(tt.norm, tt.accepted, tt.afterReject)
			if got < tt.min || got > tt.max {
				t.Errorf("nextScale(%g) = %g, want in [%g, %g]", tt.norm, got, tt.min, tt.max)
			}
		})
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4, _ = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45, _ = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)
	if math.Abs(e45-0.5) > math.Abs(e4-0.5) {
		t.Errorf("RK45 energy error %g larger than RK4 %g", math.Abs(e45-0.5), math.Abs(e4-0.5))
	}
}
