package config

import "sort"

// Presets are the stock runs, keyed by name. GetPreset hands out copies.
var Presets = map[string]*Config{
	"free_cart": Default(),
	"cart_pendulum": {
		Name:              "cart_pendulum",
		Dof:               2,
		InitialConditions: []float64{0, 0, 20, 0},
		M:                 Float(10),
		K:                 Float(0),
		C:                 Float(10),
		A:                 Float(0),
		F:                 Float(0.2),
		Mass:              Float(5),
		Length:            Float(5),
		Gravity:           Float(9.81),
		Run:               DefaultRun(),
	},
	"cart_pendulum_lagrangian": {
		Name:              "cart_pendulum_lagrangian",
		Dof:               2,
		InitialConditions: []float64{0, 0, 1, 0},
		M:                 Float(10),
		K:                 Float(0),
		C:                 Float(0),
		A:                 Float(0),
		F:                 Float(0.2),
		Mass:              Float(5),
		Length:            Float(5),
		Gravity:           Float(9.81),
		CouplingTerm:      "velocity",
		Run:               DefaultRun(),
	},
	"driven_spring_cart": {
		Name:              "driven_spring_cart",
		Dof:               1,
		InitialConditions: []float64{0, 0},
		M:                 Float(10),
		K:                 Float(40),
		C:                 Float(1),
		A:                 Float(5),
		F:                 Float(0.3),
		Run:               DefaultRun(),
	},
	"resonant_large_double_pendulum": {
		Name:              "resonant_large_double_pendulum",
		Dof:               3,
		InitialConditions: []float64{0, 0, 1.5, 0, 1.5, 0},
		M:                 Float(10),
		K:                 Float(0),
		C:                 Float(10),
		A:                 Float(100),
		F:                 Float(0.2),
		Mass:              Float(5),
		Length:            Float(5),
		Gravity:           Float(9.81),
		Run:               RunConfig{TStart: 0, TEnd: 100, Samples: DefaultSamples, Integrator: "rk45", RTol: 1e-6, ATol: 1e-9},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the config so callers may edit it.
func (c *Config) Clone() *Config {
	out := *c
	out.InitialConditions = append([]float64(nil), c.InitialConditions...)
	for _, p := range []**float64{&out.M, &out.K, &out.C, &out.A, &out.F, &out.Mass, &out.Length, &out.Gravity} {
		if *p != nil {
			*p = Float(**p)
		}
	}
	return &out
}
