package config

import (
	"fmt"
	"math"
)

// Range describes one slider.
type Range struct {
	Label   string
	Min     float64
	Max     float64
	Default float64
	Step    float64
}

// Clamp limits v to [Min, Max] and snaps it to the step grid.
func (r Range) Clamp(v float64) float64 {
	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
		// Keep one decimal more than the step so 0.1 steps don't drift.
		scale := math.Pow(10, math.Max(0, math.Ceil(-math.Log10(r.Step)))+1)
		v = math.Round(v*scale) / scale
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Fraction is the position of v within the range, in [0, 1].
func (r Range) Fraction(v float64) float64 {
	if r.Max == r.Min {
		return 0
	}
	return math.Max(0, math.Min(1, (v-r.Min)/(r.Max-r.Min)))
}

// Ranges holds the slider ranges per system type. The first order sliders
// keep a wide default range, so T = 0 is reachable and rejected downstream.
var Ranges = map[string]map[string]Range{
	SystemFirst: {
		"k":   {Label: "Gain (K)", Min: 0, Max: 100, Default: 1, Step: 1},
		"tau": {Label: "Time Constant (T)", Min: 0, Max: 100, Default: 1, Step: 1},
	},
	SystemSecond: {
		"k":    {Label: "Gain (K)", Min: 0.1, Max: 10.0, Default: 1.0, Step: 0.1},
		"zeta": {Label: "Damping Ratio (ζ)", Min: 0.0, Max: 2.0, Default: 0.7, Step: 0.1},
		"wn":   {Label: "Natural Frequency (ωn)", Min: 0.1, Max: 10.0, Default: 1.0, Step: 0.1},
	},
}

func GetRange(system, param string) (Range, error) {
	params, ok := Ranges[NormalizeSystem(system)]
	if !ok {
		return Range{}, fmt.Errorf("unknown system: %s", system)
	}
	r, ok := params[param]
	if !ok {
		return Range{}, fmt.Errorf("unknown parameter %s for %s system", param, system)
	}
	return r, nil
}

// DefaultParams returns the slider defaults of a system type.
func DefaultParams(system string) ParamsConfig {
	p := DefaultConfig().Params
	for name, r := range Ranges[NormalizeSystem(system)] {
		_ = p.Set(name, r.Default)
	}
	return p
}
