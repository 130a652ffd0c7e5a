package lti

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stepviz/internal/dynamo"
)

var (
	ErrZeroDenominator = errors.New("lti: denominator is identically zero")
	ErrImproper        = errors.New("lti: numerator order exceeds denominator order")
)

// TransferFunction is num(s)/den(s) with coefficients in descending powers of s.
type TransferFunction struct {
	Num []float64 `json:"num" yaml:"num"`
	Den []float64 `json:"den" yaml:"den"`
}

// FirstOrder returns K / (T s + 1).
func FirstOrder(k, tau float64) (TransferFunction, error) {
	if err := checkFinite("K", k); err != nil {
		return TransferFunction{}, err
	}
	if !(tau > 0) || math.IsInf(tau, 0) {
		return TransferFunction{}, fmt.Errorf("time constant T must be positive, got %g: %w", tau, dynamo.ErrParameterBounds)
	}
	return TransferFunction{
		Num: []float64{k},
		Den: []float64{tau, 1},
	}, nil
}

// SecondOrder returns K wn^2 / (s^2 + 2 zeta wn s + wn^2).
func SecondOrder(k, zeta, wn float64) (TransferFunction, error) {
	if err := checkFinite("K", k); err != nil {
		return TransferFunction{}, err
	}
	if !(zeta >= 0) || math.IsInf(zeta, 0) {
		return TransferFunction{}, fmt.Errorf("damping ratio must be non-negative, got %g: %w", zeta, dynamo.ErrParameterBounds)
	}
	if !(wn > 0) || math.IsInf(wn, 0) {
		return TransferFunction{}, fmt.Errorf("natural frequency must be positive, got %g: %w", wn, dynamo.ErrParameterBounds)
	}
	return TransferFunction{
		Num: []float64{k * wn * wn},
		Den: []float64{1, 2 * zeta * wn, wn * wn},
	}, nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %g: %w", name, v, dynamo.ErrParameterBounds)
	}
	return nil
}

// Normalize strips leading zero coefficients and scales the denominator
// to be monic.
func (tf TransferFunction) Normalize() (TransferFunction, error) {
	den := trimLeading(tf.Den)
	if len(den) == 0 {
		return TransferFunction{}, ErrZeroDenominator
	}
	num := trimLeading(tf.Num)
	if len(num) == 0 {
		num = []float64{0}
	}
	if len(num) > len(den) {
		return TransferFunction{}, fmt.Errorf("num order %d, den order %d: %w", len(num)-1, len(den)-1, ErrImproper)
	}

	lead := den[0]
	out := TransferFunction{
		Num: make([]float64, len(num)),
		Den: make([]float64, len(den)),
	}
	for i, v := range num {
		out.Num[i] = v / lead
	}
	for i, v := range den {
		out.Den[i] = v / lead
	}
	return out, nil
}

func trimLeading(c []float64) []float64 {
	for len(c) > 0 && c[0] == 0 {
		c = c[1:]
	}
	return c
}

// Order is the degree of the denominator.
func (tf TransferFunction) Order() int {
	return len(trimLeading(tf.Den)) - 1
}

// DCGain is the value at s = 0. It is infinite for a pole at the origin.
func (tf TransferFunction) DCGain() float64 {
	if len(tf.Num) == 0 {
		return 0
	}
	if len(tf.Den) == 0 {
		return math.NaN()
	}
	n := tf.Num[len(tf.Num)-1]
	d := tf.Den[len(tf.Den)-1]
	if d == 0 {
		return math.Inf(1)
	}
	return n / d
}

func (tf TransferFunction) String() string {
	return polyString(tf.Num) + " / " + polyString(tf.Den)
}

func polyString(c []float64) string {
	c = trimLeading(c)
	if len(c) == 0 {
		return "0"
	}
	var terms []string
	deg := len(c) - 1
	for i, v := range c {
		if v == 0 {
			continue
		}
		p := deg - i
		switch p {
		case 0:
			terms = append(terms, fmt.Sprintf("%g", v))
		case 1:
			terms = append(terms, fmt.Sprintf("%gs", v))
		default:
			terms = append(terms, fmt.Sprintf("%gs^%d", v, p))
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return "(" + strings.ReplaceAll(strings.Join(terms, " + "), "+ -", "- ") + ")"
}
