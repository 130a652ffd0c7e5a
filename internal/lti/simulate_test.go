package lti_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stepviz/internal/dynamo"
	"github.com/san-kum/stepviz/internal/integrators"
	"github.com/san-kum/stepviz/internal/lti"
)

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

var _ = Describe("Simulate", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("matches the analytic first order response on the ZOH grid", func() {
		tf, _ := lti.FirstOrder(2, 1)
		resp, err := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{Samples: 501, Duration: 5})
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Len()).To(Equal(501))
		Expect(resp.Times[0]).To(Equal(0.0))
		Expect(resp.Output[0]).To(BeNumerically("~", 0, 1e-12))
		Expect(resp.Times[100]).To(BeNumerically("~", 1, 1e-12))
		Expect(resp.Output[100]).To(BeNumerically("~", 2*(1-math.Exp(-1)), 1e-9))
		Expect(resp.Final()).To(BeNumerically("~", 2, 0.02))
	})

	It("reaches the textbook overshoot for an underdamped system", func() {
		zeta := 0.5
		tf, _ := lti.SecondOrder(1, zeta, 2)
		resp, err := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{Samples: 2001})
		Expect(err).NotTo(HaveOccurred())

		want := 1 + math.Exp(-zeta*math.Pi/math.Sqrt(1-zeta*zeta))
		Expect(maxOf(resp.Output)).To(BeNumerically("~", want, 1e-3))
	})

	Describe("default horizon", func() {
		It("covers seven time constants of the slowest pole", func() {
			tf, _ := lti.FirstOrder(1, 2)
			resp, err := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Len()).To(Equal(lti.DefaultSamples))
			Expect(resp.Times[resp.Len()-1]).To(BeNumerically("~", 14, 1e-9))
		})

		It("falls back to a unit rate for poles on the imaginary axis", func() {
			tf, _ := lti.SecondOrder(1, 0, 3)
			ss, _ := tf.StateSpace()
			h, err := lti.Horizon(ss)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(BeNumerically("~", 7, 1e-9))
		})
	})

	Describe("integrating solvers", func() {
		var (
			tf  lti.TransferFunction
			ref lti.Response
		)

		BeforeEach(func() {
			tf, _ = lti.SecondOrder(1, 0.3, 2)
			var err error
			ref, err = lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{Samples: 201, Duration: 10})
			Expect(err).NotTo(HaveOccurred())
		})

		It("agrees with ZOH sample by sample for RK4", func() {
			rk4 := lti.NewIntegrated("rk4", func() dynamo.Integrator { return integrators.NewRK4() }, false)
			resp, err := lti.Simulate(ctx, tf, rk4, lti.SimOptions{Samples: 201, Duration: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Len()).To(Equal(ref.Len()))
			for i := range ref.Output {
				Expect(resp.Times[i]).To(BeNumerically("~", ref.Times[i], 1e-9))
				Expect(resp.Output[i]).To(BeNumerically("~", ref.Output[i], 1e-4))
			}
		})

		It("produces a non-uniform grid ending at the horizon for RK45", func() {
			rk45 := lti.NewIntegrated("rk45", func() dynamo.Integrator { return integrators.NewRK45() }, true)
			resp, err := lti.Simulate(ctx, tf, rk45, lti.SimOptions{Samples: 201, Duration: 10})
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Times[resp.Len()-1]).To(Equal(10.0))
			Expect(resp.Final()).To(BeNumerically("~", ref.Final(), 1e-4))
			Expect(maxOf(resp.Output)).To(BeNumerically("~", maxOf(ref.Output), 1e-2))
			for i := 1; i < resp.Len(); i++ {
				Expect(resp.Times[i]).To(BeNumerically(">", resp.Times[i-1]))
			}
		})

		It("stays close to ZOH for Euler at the end of the run", func() {
			euler := lti.NewIntegrated("euler", func() dynamo.Integrator { return integrators.NewEuler() }, false)
			resp, err := lti.Simulate(ctx, tf, euler, lti.SimOptions{Samples: 201, Duration: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Final()).To(BeNumerically("~", ref.Final(), 5e-2))
		})
	})

	It("is deterministic", func() {
		tf, _ := lti.SecondOrder(2, 0.7, 1)
		a, _ := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{})
		b, _ := lti.Simulate(ctx, tf, lti.NewZOH(), lti.SimOptions{})
		Expect(a).To(Equal(b))
	})

	DescribeTable("rejects bad options",
		func(opts lti.SimOptions) {
			tf, _ := lti.FirstOrder(1, 1)
			_, err := lti.Simulate(ctx, tf, lti.NewZOH(), opts)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		},
		Entry("one sample", lti.SimOptions{Samples: 1}),
		Entry("negative samples", lti.SimOptions{Samples: -5}),
		Entry("negative duration", lti.SimOptions{Duration: -1}),
	)

	It("honours a canceled context", func() {
		tf, _ := lti.FirstOrder(1, 1)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := lti.Simulate(canceled, tf, lti.NewZOH(), lti.SimOptions{})
		Expect(err).To(MatchError(context.Canceled))

		rk4 := lti.NewIntegrated("rk4", func() dynamo.Integrator { return integrators.NewRK4() }, false)
		_, err = lti.Simulate(canceled, tf, rk4, lti.SimOptions{})
		Expect(err).To(MatchError(context.Canceled))
	})

	It("spaces Linspace evenly and pins the end point", func() {
		Expect(lti.Linspace(0, 1, 5)).To(Equal([]float64{0, 0.25, 0.5, 0.75, 1}))
		Expect(lti.Linspace(3, 9, 1)).To(Equal([]float64{3}))
		Expect(lti.Linspace(0, 1, 0)).To(BeNil())
	})
})
