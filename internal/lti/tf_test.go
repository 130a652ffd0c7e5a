package lti_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stepviz/internal/dynamo"
	"github.com/san-kum/stepviz/internal/lti"
)

var _ = Describe("TransferFunction", func() {
	Describe("assembly", func() {
		It("builds K/(Ts+1) for a first order system", func() {
			tf, err := lti.FirstOrder(2, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(tf.Num).To(Equal([]float64{2}))
			Expect(tf.Den).To(Equal([]float64{3, 1}))
			Expect(tf.Order()).To(Equal(1))
			Expect(tf.String()).To(Equal("(2) / (3s + 1)"))
		})

		It("builds K wn^2/(s^2+2 zeta wn s+wn^2) for a second order system", func() {
			tf, err := lti.SecondOrder(1.5, 0.5, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(tf.Num).To(Equal([]float64{6}))
			Expect(tf.Den).To(Equal([]float64{1, 2, 4}))
			Expect(tf.Order()).To(Equal(2))
		})

		It("has a DC gain equal to K", func() {
			first, _ := lti.FirstOrder(-4, 0.5)
			second, _ := lti.SecondOrder(2.5, 0.1, 3)
			Expect(first.DCGain()).To(BeNumerically("~", -4, 1e-12))
			Expect(second.DCGain()).To(BeNumerically("~", 2.5, 1e-12))
		})

		DescribeTable("rejects parameters that make the system ill defined",
			func(build func() (lti.TransferFunction, error)) {
				_, err := build()
				Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			},
			Entry("zero time constant", func() (lti.TransferFunction, error) { return lti.FirstOrder(1, 0) }),
			Entry("negative time constant", func() (lti.TransferFunction, error) { return lti.FirstOrder(1, -1) }),
			Entry("NaN gain", func() (lti.TransferFunction, error) { return lti.FirstOrder(math.NaN(), 1) }),
			Entry("zero natural frequency", func() (lti.TransferFunction, error) { return lti.SecondOrder(1, 0.7, 0) }),
			Entry("negative damping", func() (lti.TransferFunction, error) { return lti.SecondOrder(1, -0.1, 1) }),
			Entry("infinite gain", func() (lti.TransferFunction, error) { return lti.SecondOrder(math.Inf(1), 0.7, 1) }),
		)
	})

	Describe("Normalize", func() {
		It("makes the denominator monic", func() {
			tf, err := lti.TransferFunction{Num: []float64{0, 4}, Den: []float64{0, 2, 8}}.Normalize()
			Expect(err).NotTo(HaveOccurred())
			Expect(tf.Num).To(Equal([]float64{2}))
			Expect(tf.Den).To(Equal([]float64{1, 4}))
		})

		It("rejects a zero denominator", func() {
			_, err := lti.TransferFunction{Num: []float64{1}, Den: []float64{0, 0}}.Normalize()
			Expect(err).To(MatchError(lti.ErrZeroDenominator))
		})

		It("rejects an improper transfer function", func() {
			_, err := lti.TransferFunction{Num: []float64{1, 0, 0}, Den: []float64{1, 1}}.Normalize()
			Expect(err).To(MatchError(lti.ErrImproper))
		})
	})

	Describe("StateSpace", func() {
		It("uses the controllable canonical form", func() {
			tf, _ := lti.SecondOrder(1.5, 0.5, 2)
			ss, err := tf.StateSpace()
			Expect(err).NotTo(HaveOccurred())

			Expect(ss.StateDim()).To(Equal(2))
			Expect(ss.A.At(0, 0)).To(BeNumerically("~", -2, 1e-12))
			Expect(ss.A.At(0, 1)).To(BeNumerically("~", -4, 1e-12))
			Expect(ss.A.At(1, 0)).To(BeNumerically("~", 1, 1e-12))
			Expect(ss.A.At(1, 1)).To(BeNumerically("~", 0, 1e-12))
			Expect(ss.B.AtVec(0)).To(Equal(1.0))
			Expect(ss.C.AtVec(1)).To(BeNumerically("~", 6, 1e-12))
			Expect(ss.D).To(Equal(0.0))
		})

		It("reproduces the DC gain at equilibrium", func() {
			tf, _ := lti.FirstOrder(3, 2)
			ss, _ := tf.StateSpace()

			// x' = 0 under u = 1 gives x = -A^-1 B = T for the scaled realization.
			x := dynamo.State{2}
			Expect(ss.Derive(x, dynamo.Control{1}, 0)[0]).To(BeNumerically("~", 0, 1e-12))
			Expect(ss.Output(x, dynamo.Control{1})).To(BeNumerically("~", 3, 1e-12))
		})

		It("refuses a static gain", func() {
			_, err := lti.TransferFunction{Num: []float64{2}, Den: []float64{4}}.StateSpace()
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("sorts poles by real part", func() {
			tf := lti.TransferFunction{Num: []float64{1}, Den: []float64{1, 3, 2}}
			ss, _ := tf.StateSpace()
			poles, err := ss.Poles()
			Expect(err).NotTo(HaveOccurred())
			Expect(poles).To(HaveLen(2))
			Expect(real(poles[0])).To(BeNumerically("~", -2, 1e-9))
			Expect(real(poles[1])).To(BeNumerically("~", -1, 1e-9))
			Expect(lti.Stable(poles)).To(BeTrue())
		})

		It("reports an undamped system as not strictly stable", func() {
			tf, _ := lti.SecondOrder(1, 0, 2)
			ss, _ := tf.StateSpace()
			poles, _ := ss.Poles()
			Expect(imag(poles[1])).To(BeNumerically("~", 2, 1e-9))
			Expect(lti.Stable(poles)).To(BeFalse())
		})
	})
})
