package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if n := (State{3, 4}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}
}

func TestSpan_Linspace(t *testing.T) {
	ts := Span{Start: 0, End: 100}.Linspace(1001)
	if len(ts) != 1001 {
		t.Fatalf("expected 1001 samples, got %d", len(ts))
	}
	if ts[0] != 0 || ts[1000] != 100 {
		t.Errorf("endpoints = %v, %v", ts[0], ts[1000])
	}
	if math.Abs(ts[10]-1.0) > 1e-12 {
		t.Errorf("ts[10] = %v, want 1", ts[10])
	}
}

func TestSpan_Validate(t *testing.T) {
	tests := []struct {
		name string
		span Span
		ok   bool
	}{
		{"forward", Span{0, 1}, true},
		{"empty", Span{1, 1}, false},
		{"reversed", Span{2, 1}, false},
		{"nan", Span{math.NaN(), 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.span.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok=%v", err, tt.ok)
			}
		})
	}
}

func TestTrajectory_Channel(t *testing.T) {
	tr := &Trajectory{
		Dof:    1,
		Times:  []float64{0, 1},
		States: []State{{1, 2}, {3, 4}},
	}
	ch := tr.Channel(1)
	if ch[0] != 2 || ch[1] != 4 {
		t.Errorf("Channel(1) = %v", ch)
	}
	if f := tr.Final(); f[0] != 3 {
		t.Errorf("Final() = %v", f)
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName(3, 4); got != "theta2" {
		t.Errorf("ChannelName(3, 4) = %q", got)
	}
	if got := ChannelName(1, 2); got != "x2" {
		t.Errorf("ChannelName(1, 2) = %q", got)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cfgErr := &ConfigurationError{Field: "M", Reason: "must be positive"}
	if !errors.Is(cfgErr, ErrConfiguration) {
		t.Error("ConfigurationError does not match ErrConfiguration")
	}
	if got := cfgErr.Error(); got != "dynamo: invalid configuration: M: must be positive" {
		t.Errorf("Error() = %q", got)
	}

	sing := &SingularSystemError{Time: 1.5, Cond: math.Inf(1)}
	wrapped := &SimulationError{Step: 3, Time: 1.5, Wrapped: sing}
	if !errors.Is(wrapped, ErrSingularSystem) {
		t.Error("SimulationError does not unwrap to ErrSingularSystem")
	}
	var target *SingularSystemError
	if !errors.As(wrapped, &target) || target.Time != 1.5 {
		t.Errorf("errors.As failed: %+v", target)
	}
}
