package metrics_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stepviz/internal/metrics"
)

// firstOrder samples K(1 - exp(-t/tau)) on [0, end].
func firstOrder(k, tau, end float64, n int) ([]float64, []float64) {
	times := make([]float64, n)
	out := make([]float64, n)
	for i := range times {
		times[i] = end * float64(i) / float64(n-1)
		out[i] = k * (1 - math.Exp(-times[i]/tau))
	}
	return times, out
}

var _ = Describe("Compute", func() {
	Describe("rise time", func() {
		It("is the time between the first 10% and first 90% crossings", func() {
			times := []float64{0, 1, 2, 3, 4, 5}
			output := []float64{0, 0.05, 0.2, 0.6, 0.95, 1.0}

			res, err := metrics.Compute(times, output, 1.0)
			Expect(err).NotTo(HaveOccurred())

			rise, ok := res.RiseTime.Value()
			Expect(ok).To(BeTrue())
			Expect(rise).To(Equal(4.0 - 2.0))
		})

		It("is positive for a monotonically rising first order response", func() {
			times, output := firstOrder(3, 0.5, 5, 5001)

			res, err := metrics.Compute(times, output, 3)
			Expect(err).NotTo(HaveOccurred())

			// ln(9) tau for a first order lag
			Expect(res.RiseTime.IsDefined()).To(BeTrue())
			Expect(res.RiseTime.Or(0)).To(BeNumerically(">", 0))
			Expect(res.RiseTime.Or(0)).To(BeNumerically("~", math.Log(9)*0.5, 2e-3))
		})

		It("is undefined when the response never reaches 10%", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 0.01, 0.05}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RiseTime).To(Equal(metrics.Undefined))
		})

		It("is undefined when the response stalls between 10% and 90%", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 0.5, 0.8}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RiseTime.IsDefined()).To(BeFalse())
		})

		It("is undefined for a negative steady state", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, -0.6, -1}, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RiseTime.IsDefined()).To(BeFalse())
		})

		It("is zero when one sample crosses both thresholds", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 1, 1}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RiseTime).To(Equal(metrics.Defined(0)))
		})
	})

	Describe("settling time", func() {
		It("is the time of the first sample inside the 2% band", func() {
			res, err := metrics.Compute([]float64{0, 1, 2, 3, 4}, []float64{0, 0.5, 0.99, 1.0, 1.0}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SettlingTime).To(Equal(metrics.Defined(2)))
		})

		It("includes the band edge", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 48.5, 51}, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SettlingTime).To(Equal(metrics.Defined(2)))
		})

		It("is absent when no sample enters the band", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 0.5, 0.9}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SettlingTime.IsDefined()).To(BeFalse())
		})

		It("is absent for a zero steady state", func() {
			res, err := metrics.Compute([]float64{0, 1, 2}, []float64{0, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SettlingTime.IsDefined()).To(BeFalse())
			Expect(res.RiseTime.IsDefined()).To(BeFalse())
		})
	})

	Describe("peak time", func() {
		It("is the time of the global maximum", func() {
			res, err := metrics.Compute([]float64{0, 1, 2, 3}, []float64{0, 1.2, 0.9, 1.0}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.PeakTime).To(Equal(1.0))
			Expect(res.PeakValue).To(Equal(1.2))
		})

		It("resolves ties to the first occurrence", func() {
			res, err := metrics.Compute([]float64{0, 1, 2, 3}, []float64{0, 1.1, 1.1, 1.0}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.PeakTime).To(Equal(1.0))
		})

		It("is defined for a single sample", func() {
			res, err := metrics.Compute([]float64{0.5}, []float64{3}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.PeakTime).To(Equal(0.5))
		})
	})

	Describe("overshoot", func() {
		It("is the percentage by which the peak exceeds steady state", func() {
			res, err := metrics.Compute([]float64{0, 1, 2, 3}, []float64{0, 1.2, 0.9, 1.0}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Overshoot).To(BeNumerically("~", 20.0, 1e-9))
		})

		It("is negative when the response stays below steady state", func() {
			res, err := metrics.Compute([]float64{0, 1}, []float64{0, 0.9}, 1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Overshoot).To(BeNumerically("~", -10.0, 1e-9))
		})

		DescribeTable("is zero for a non-positive steady state regardless of output",
			func(steady float64, output []float64) {
				res, err := metrics.Compute([]float64{0, 1, 2}, output, steady)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Overshoot).To(Equal(0.0))
			},
			Entry("zero", 0.0, []float64{0, 5, 3}),
			Entry("negative", -2.0, []float64{0, -2.5, -2}),
			Entry("negative with positive excursion", -1.0, []float64{0, 4, -1}),
		)
	})

	Describe("preconditions", func() {
		DescribeTable("fail fast on malformed input",
			func(times, output []float64, want error) {
				_, err := metrics.Compute(times, output, 1)
				Expect(err).To(MatchError(want))
			},
			Entry("empty", []float64{}, []float64{}, metrics.ErrEmptySamples),
			Entry("nil output", []float64{0}, nil, metrics.ErrEmptySamples),
			Entry("length mismatch", []float64{0, 1}, []float64{0}, metrics.ErrLengthMismatch),
			Entry("repeated time", []float64{0, 1, 1}, []float64{0, 1, 1}, metrics.ErrNonIncreasingTime),
			Entry("decreasing time", []float64{0, 2, 1}, []float64{0, 1, 1}, metrics.ErrNonIncreasingTime),
			Entry("NaN output", []float64{0, 1}, []float64{0, math.NaN()}, metrics.ErrNonFinite),
			Entry("Inf time", []float64{0, math.Inf(1)}, []float64{0, 1}, metrics.ErrNonFinite),
		)

		It("rejects a non-finite steady state", func() {
			_, err := metrics.Compute([]float64{0}, []float64{0}, math.NaN())
			Expect(err).To(MatchError(metrics.ErrNonFinite))
		})

		It("names the offending sample", func() {
			_, err := metrics.Compute([]float64{0, 1, 0.5}, []float64{0, 1, 1}, 1)
			Expect(err).To(MatchError(ContainSubstring("sample 2")))
		})
	})

	It("is idempotent", func() {
		times, output := firstOrder(1, 1, 7, 100)
		a, errA := metrics.Compute(times, output, 1)
		b, errB := metrics.Compute(times, output, 1)
		Expect(errA).NotTo(HaveOccurred())
		Expect(errB).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("does not modify its inputs", func() {
		times := []float64{0, 1, 2, 3}
		output := []float64{0, 1.2, 0.9, 1.0}
		_, err := metrics.Compute(times, output, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(times).To(Equal([]float64{0, 1, 2, 3}))
		Expect(output).To(Equal([]float64{0, 1.2, 0.9, 1.0}))
	})
})

var _ = Describe("Optional", func() {
	It("reports the wrapped value", func() {
		v, ok := metrics.Defined(1.5).Value()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1.5))
		Expect(metrics.Undefined.Or(-1)).To(Equal(-1.0))
		Expect(metrics.Undefined.String()).To(Equal("undefined"))
		Expect(metrics.Defined(0.25).String()).To(Equal("0.25"))
	})

	It("encodes undefined values as JSON null", func() {
		data, err := json.Marshal(metrics.Result{RiseTime: metrics.Defined(1.25), PeakTime: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"rise_time":1.25`))
		Expect(string(data)).To(ContainSubstring(`"settling_time":null`))

		var back metrics.Result
		Expect(json.Unmarshal(data, &back)).To(Succeed())
		Expect(back.RiseTime).To(Equal(metrics.Defined(1.25)))
		Expect(back.SettlingTime).To(Equal(metrics.Undefined))
	})
})
