package dynamo

// Step is a constant input applied from t = 0 on every channel.
type Step struct {
	Amplitude float64
	dim       int
}

func NewStep(amplitude float64) *Step {
	return &Step{Amplitude: amplitude, dim: 1}
}

// WithDim sets the number of input channels.
func (s *Step) WithDim(dim int) *Step {
	s.dim = dim
	return s
}

func (s *Step) Compute(x State, t float64) Control {
	u := make(Control, s.dim)
	for i := range u {
		u[i] = s.Amplitude
	}
	return u
}
