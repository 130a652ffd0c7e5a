package metrics

import (
	"errors"
	"fmt"
	"math"
)

const (
	RiseLow      = 0.10
	RiseHigh     = 0.90
	SettlingBand = 0.02
)

var (
	ErrEmptySamples      = errors.New("metrics: empty sample set")
	ErrLengthMismatch    = errors.New("metrics: time and output lengths differ")
	ErrNonIncreasingTime = errors.New("metrics: time is not strictly increasing")
	ErrNonFinite         = errors.New("metrics: non-finite sample")
)

// Result holds the figures of one response. It carries no identity beyond
// the call that produced it.
type Result struct {
	RiseTime     Optional `json:"rise_time"`
	SettlingTime Optional `json:"settling_time"`
	PeakTime     float64  `json:"peak_time"`
	PeakValue    float64  `json:"peak_value"`
	// Overshoot is in percent. It is 0 by convention for a non-positive
	// steady state and is not physically meaningful there.
	Overshoot   float64 `json:"overshoot"`
	SteadyState float64 `json:"steady_state"`
}

// Compute derives the step response figures of output sampled at times,
// measured against steadyState. It has no side effects.
func Compute(times, output []float64, steadyState float64) (Result, error) {
	if err := validate(times, output, steadyState); err != nil {
		return Result{}, err
	}

	peak := argmax(output)
	res := Result{
		RiseTime:     riseTime(times, output, steadyState),
		SettlingTime: settlingTime(times, output, steadyState),
		PeakTime:     times[peak],
		PeakValue:    output[peak],
		SteadyState:  steadyState,
	}
	if steadyState > 0 {
		res.Overshoot = (output[peak] - steadyState) / steadyState * 100
	}
	return res, nil
}

func validate(times, output []float64, steadyState float64) error {
	if len(times) == 0 || len(output) == 0 {
		return ErrEmptySamples
	}
	if len(times) != len(output) {
		return fmt.Errorf("%d times, %d outputs: %w", len(times), len(output), ErrLengthMismatch)
	}
	if !finite(steadyState) {
		return fmt.Errorf("steady state %g: %w", steadyState, ErrNonFinite)
	}
	for i := range times {
		if !finite(times[i]) || !finite(output[i]) {
			return fmt.Errorf("sample %d (t=%g, y=%g): %w", i, times[i], output[i], ErrNonFinite)
		}
		if i > 0 && times[i] <= times[i-1] {
			return fmt.Errorf("sample %d: t=%g after t=%g: %w", i, times[i], times[i-1], ErrNonIncreasingTime)
		}
	}
	return nil
}

// riseTime is undefined unless the response climbs through both thresholds
// of a positive steady state.
func riseTime(times, output []float64, steadyState float64) Optional {
	if steadyState <= 0 {
		return Undefined
	}
	lo := firstAtLeast(output, RiseLow*steadyState)
	hi := firstAtLeast(output, RiseHigh*steadyState)
	if lo < 0 || hi < 0 {
		return Undefined
	}
	return Defined(times[hi] - times[lo])
}

// settlingTime is the first entry into the band, not the last exit from it.
func settlingTime(times, output []float64, steadyState float64) Optional {
	if steadyState <= 0 {
		return Undefined
	}
	band := SettlingBand * steadyState
	for i, y := range output {
		if math.Abs(y-steadyState) <= band {
			return Defined(times[i])
		}
	}
	return Undefined
}

func firstAtLeast(v []float64, threshold float64) int {
	for i, x := range v {
		if x >= threshold {
			return i
		}
	}
	return -1
}

// argmax resolves ties to the first occurrence.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
