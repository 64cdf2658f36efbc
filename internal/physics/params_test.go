package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartsim/internal/dynamo"
	"github.com/san-kum/cartsim/internal/physics"
)

var (
	presetCart     = physics.CartParams{M: 10, K: 0, C: 10, A: 0, F: 0.2}
	presetPendulum = physics.PendulumParams{Mass: 5, Length: 5, Gravity: 9.81}
)

func configField(err error) string {
	var ce *dynamo.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

var _ = Describe("ParameterSet", func() {
	It("reads back the values it was built from", func() {
		cart := physics.CartParams{M: 10.5, K: 2.25, C: 0.125, A: 3, F: 0.4}
		ps, err := physics.NewParameterSet(physics.CartDoublePendulum, cart, presetPendulum)
		Expect(err).NotTo(HaveOccurred())

		Expect(ps.Cart()).To(Equal(cart))
		pend, ok := ps.Pendulum()
		Expect(ok).To(BeTrue())
		Expect(pend).To(Equal(presetPendulum))
		Expect(ps.Dof()).To(Equal(3))
		Expect(ps.StateDim()).To(Equal(6))
		Expect(ps.AngularFrequency()).To(Equal(2 * math.Pi * cart.F))
	})

	It("defaults to cosine forcing and position coupling", func() {
		ps, err := physics.NewParameterSet(physics.CartPendulum, presetCart, presetPendulum)
		Expect(err).NotTo(HaveOccurred())
		Expect(ps.Waveform()).To(Equal(physics.Cosine))
		Expect(ps.Coupling()).To(Equal(physics.CouplingPosition))
	})

	It("ignores pendulum parameters for a free cart", func() {
		ps, err := physics.NewParameterSet(physics.Cart, presetCart, physics.PendulumParams{})
		Expect(err).NotTo(HaveOccurred())
		_, ok := ps.Pendulum()
		Expect(ok).To(BeFalse())
		Expect(ps.Params()).NotTo(HaveKey("m"))
	})

	DescribeTable("rejects out-of-range topologies",
		func(dof int) {
			_, err := physics.NewParameterSet(physics.Topology(dof), presetCart, presetPendulum)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
			Expect(configField(err)).To(Equal("dof"))

			_, err = physics.TopologyFromDof(dof)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		},
		Entry("zero", 0),
		Entry("four", 4),
		Entry("negative", -1),
	)

	DescribeTable("rejects invalid values",
		func(topology physics.Topology, cart physics.CartParams, pend physics.PendulumParams, field string) {
			_, err := physics.NewParameterSet(topology, cart, pend)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
			Expect(configField(err)).To(Equal(field))
		},
		Entry("zero cart mass", physics.Cart, physics.CartParams{M: 0}, physics.PendulumParams{}, "M"),
		Entry("negative spring", physics.Cart, physics.CartParams{M: 1, K: -1}, physics.PendulumParams{}, "k"),
		Entry("negative damping", physics.Cart, physics.CartParams{M: 1, C: -0.1}, physics.PendulumParams{}, "c"),
		Entry("infinite amplitude", physics.Cart, physics.CartParams{M: 1, A: math.Inf(1)}, physics.PendulumParams{}, "A"),
		Entry("nan frequency", physics.Cart, physics.CartParams{M: 1, F: math.NaN()}, physics.PendulumParams{}, "f"),
		Entry("missing pendulum mass", physics.CartPendulum, presetCart, physics.PendulumParams{Length: 1, Gravity: 9.81}, "m"),
		Entry("zero length", physics.CartDoublePendulum, presetCart, physics.PendulumParams{Mass: 1, Gravity: 9.81}, "L"),
		Entry("zero gravity", physics.CartPendulum, presetCart, physics.PendulumParams{Mass: 1, Length: 1}, "g"),
	)

	It("rejects unknown options", func() {
		_, err := physics.NewParameterSet(physics.Cart, presetCart, physics.PendulumParams{}, physics.WithWaveform("square"))
		Expect(configField(err)).To(Equal("forcing"))

		_, err = physics.NewParameterSet(physics.CartPendulum, presetCart, presetPendulum, physics.WithCoupling("both"))
		Expect(configField(err)).To(Equal("couplingTerm"))
	})

	It("replaces a single value and revalidates", func() {
		ps, err := physics.NewParameterSet(physics.CartPendulum, presetCart, presetPendulum, physics.WithCoupling(physics.CouplingVelocity))
		Expect(err).NotTo(HaveOccurred())

		next, err := ps.With("k", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Cart().K).To(Equal(4.0))
		Expect(next.Coupling()).To(Equal(physics.CouplingVelocity))
		Expect(ps.Cart().K).To(Equal(0.0))

		_, err = ps.With("M", 0)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
		_, err = ps.With("zeta", 1)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})

	It("validates initial states against the topology", func() {
		ps, _ := physics.NewParameterSet(physics.CartPendulum, presetCart, presetPendulum)
		Expect(ps.ValidateState([]float64{0, 0, 20, 0})).To(Succeed())
		Expect(ps.ValidateState([]float64{0, 1})).To(MatchError(dynamo.ErrConfiguration))
		Expect(ps.ValidateState([]float64{0, 0, math.NaN(), 0})).To(MatchError(dynamo.ErrConfiguration))
	})

	It("evaluates the configured waveform", func() {
		cart := physics.CartParams{M: 1, A: 2, F: 0.25}
		cos, _ := physics.NewParameterSet(physics.Cart, cart, physics.PendulumParams{})
		sin, _ := physics.NewParameterSet(physics.Cart, cart, physics.PendulumParams{}, physics.WithWaveform(physics.Sine))

		Expect(cos.Forcing(0)).To(Equal(2.0))
		Expect(sin.Forcing(0)).To(Equal(0.0))
		Expect(sin.Forcing(1)).To(BeNumerically("~", 2, 1e-12))
		Expect(cos.Forcing(2)).To(BeNumerically("~", -2, 1e-12))
	})
})
