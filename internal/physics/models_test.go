package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

func mustModel(topology physics.Topology, cart physics.CartParams, pend physics.PendulumParams, opts ...physics.Option) physics.Model {
	ps, err := physics.NewParameterSet(topology, cart, pend, opts...)
	Expect(err).NotTo(HaveOccurred())
	m, err := physics.NewModel(ps)
	Expect(err).NotTo(HaveOccurred())
	return m
}

// cramer solves a 3×3 system by determinants.
func cramer(a [3][3]float64, b [3]float64) [3]float64 {
	det := func(m [3][3]float64) float64 {
		return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
			m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
			m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	}
	d := det(a)
	var out [3]float64
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		out[col] = det(m) / d
	}
	return out
}

var _ = Describe("NewModel", func() {
	It("selects the dynamics by topology", func() {
		Expect(mustModel(physics.Cart, presetCart, presetPendulum)).To(BeAssignableToTypeOf(&physics.FreeCart{}))
		Expect(mustModel(physics.CartPendulum, presetCart, presetPendulum)).To(BeAssignableToTypeOf(&physics.PendulumCart{}))
		Expect(mustModel(physics.CartDoublePendulum, presetCart, presetPendulum)).To(BeAssignableToTypeOf(&physics.DoublePendulumCart{}))
	})

	It("rejects an unvalidated parameter set", func() {
		_, err := physics.NewModel(physics.ParameterSet{})
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})

	It("reports a dimension mismatch", func() {
		for _, topology := range []physics.Topology{physics.Cart, physics.CartPendulum, physics.CartDoublePendulum} {
			m := mustModel(topology, presetCart, presetPendulum)
			Expect(m.StateDim()).To(Equal(2 * topology.Dof()))
			_, err := m.Derive(make(dynamo.State, 2*topology.Dof()+1), 0)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		}
	})
})

var _ = Describe("FreeCart", func() {
	It("has no acceleration without forces", func() {
		m := mustModel(physics.Cart, physics.CartParams{M: 3}, physics.PendulumParams{})
		for _, x := range []dynamo.State{{0, 0}, {1, 2}, {-5, 0.25}, {1e6, -1e3}} {
			dx, err := m.Derive(x, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(dx).To(Equal(dynamo.State{x[1], 0}))
		}
	})

	It("combines spring, damper and drive", func() {
		m := mustModel(physics.Cart, physics.CartParams{M: 2, K: 3, C: 0.5, A: 4, F: 0}, physics.PendulumParams{})
		dx, err := m.Derive(dynamo.State{1, 2}, 0)
		Expect(err).NotTo(HaveOccurred())
		// (4 - 3·1 - 0.5·2) / 2
		Expect(dx).To(Equal(dynamo.State{2, 0}))
	})
})

var _ = Describe("CartPendulum", func() {
	It("stays at rest hanging straight down", func() {
		m := mustModel(physics.CartPendulum, physics.CartParams{M: 10}, presetPendulum)
		dx, err := m.Derive(dynamo.State{0, 0, 0, 0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dx).To(Equal(dynamo.State{0, 0, 0, 0}))
	})

	It("matches the closed form at a displaced state", func() {
		cart := physics.CartParams{M: 10, K: 1, C: 2, A: 3, F: 0}
		m := mustModel(physics.CartPendulum, cart, presetPendulum)
		x := dynamo.State{0.5, -0.2, 0.3, 0.4}
		dx, err := m.Derive(x, 0)
		Expect(err).NotTo(HaveOccurred())

		M, mp, L, g := 10.0, 5.0, 5.0, 9.81
		I := mp * L * L / 3
		r := L / 2
		drive := 3 - 1*0.5 - 2*(-0.2)
		den := I*(M+mp) - mp*mp*r*r*math.Cos(0.3)*math.Cos(0.3)
		wantX := (mp*mp*r*r*g*math.Sin(0.3)*math.Cos(0.3) + I*mp*r*0.4*0.4*math.Sin(0.3) + I*drive) / den
		wantTh := (-(M+mp)*mp*g*r*math.Sin(0.3) - mp*r*math.Cos(0.3)*(mp*r*0.3*0.3*math.Sin(0.3)+drive)) / den

		Expect(dx[0]).To(Equal(-0.2))
		Expect(dx[1]).To(BeNumerically("~", wantX, 1e-12))
		Expect(dx[2]).To(Equal(0.4))
		Expect(dx[3]).To(BeNumerically("~", wantTh, 1e-12))
	})

	It("switches the quadratic coupling term", func() {
		x := dynamo.State{0, 0, 0.3, 0.9}
		pos := mustModel(physics.CartPendulum, presetCart, presetPendulum)
		vel := mustModel(physics.CartPendulum, presetCart, presetPendulum, physics.WithCoupling(physics.CouplingVelocity))

		dpos, err := pos.Derive(x, 0)
		Expect(err).NotTo(HaveOccurred())
		dvel, err := vel.Derive(x, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(dpos[1]).To(Equal(dvel[1]))
		Expect(dpos[3]).NotTo(BeNumerically("~", dvel[3], 1e-9))

		same := dynamo.State{0, 0, 0.3, 0.3}
		a, _ := pos.Derive(same, 0)
		b, _ := vel.Derive(same, 0)
		Expect(a).To(Equal(b))
	})
})

var _ = Describe("CartDoublePendulum", func() {
	massSystem := func(cart physics.CartParams, pend physics.PendulumParams, x dynamo.State, ft float64) ([3][3]float64, [3]float64) {
		M, m, L, g := cart.M, pend.Mass, pend.Length, pend.Gravity
		I := m * L * L / 12
		r := L / 2
		c1, s1 := math.Cos(x[2]), math.Sin(x[2])
		c3, s3 := math.Cos(x[4]), math.Sin(x[4])
		c13, s13 := math.Cos(x[2]-x[4]), math.Sin(x[2]-x[4])
		a := [3][3]float64{
			{M + 2*m, 3 * m * r * c1, m * r * c3},
			{3 * m * r * c1, 5*m*r*r + I, 2 * m * r * r * c13},
			{m * r * c3, 2 * m * r * r * c13, m*r*r + I},
		}
		b := [3]float64{
			3*m*r*x[3]*x[3]*s1 + m*r*x[5]*x[5]*s3 - cart.K*x[0] - cart.C*x[1] + ft,
			-3*m*g*r*s1 - 2*m*r*r*x[5]*x[5]*s13,
			2*m*r*r*x[3]*x[3]*s13 - m*g*r*s3,
		}
		return a, b
	}

	DescribeTable("matches a Cramer's rule solve",
		func(cart physics.CartParams, x dynamo.State, t float64) {
			model := mustModel(physics.CartDoublePendulum, cart, presetPendulum)
			dx, err := model.Derive(x, t)
			Expect(err).NotTo(HaveOccurred())

			ps := model.Params()
			a, b := massSystem(cart, presetPendulum, x, ps.Forcing(t))
			want := cramer(a, b)

			Expect(dx[0]).To(Equal(x[1]))
			Expect(dx[2]).To(Equal(x[3]))
			Expect(dx[4]).To(Equal(x[5]))
			Expect(dx[1]).To(BeNumerically("~", want[0], 1e-9))
			Expect(dx[3]).To(BeNumerically("~", want[1], 1e-9))
			Expect(dx[5]).To(BeNumerically("~", want[2], 1e-9))
		},
		Entry("at rest", presetCart, dynamo.State{0, 0, 0, 0, 0, 0}, 0.0),
		Entry("driven cart, links hanging", physics.CartParams{M: 10, K: 2, C: 10, A: 3, F: 0.2}, dynamo.State{0.3, 0.7, 0, 0, 0, 0}, 0.0),
		Entry("swinging links", physics.CartParams{M: 10, K: 1, C: 0.5, A: 2, F: 0.2}, dynamo.State{0.1, -0.4, 0.6, 0.5, -0.3, -1.2}, 1.3),
	)

	It("has zero accelerations in the rest configuration", func() {
		model := mustModel(physics.CartDoublePendulum, presetCart, presetPendulum)
		dx, err := model.Derive(dynamo.State{0, 0, 0, 0, 0, 0}, 0)
		Expect(err).NotTo(HaveOccurred())
		for _, v := range dx {
			Expect(v).To(BeNumerically("~", 0, 1e-12))
		}
	})
})
