package lti

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/san-kum/stepviz/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// StateSpace is the single-input single-output realization
//
//	x'(t) = A x(t) + B u(t)
//	y(t)  = C x(t) + D u(t)
type StateSpace struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// StateSpace returns the controllable canonical realization of tf.
func (tf TransferFunction) StateSpace() (*StateSpace, error) {
	norm, err := tf.Normalize()
	if err != nil {
		return nil, err
	}

	n := len(norm.Den) - 1
	if n == 0 {
		return nil, fmt.Errorf("static gain %g has no dynamics: %w", norm.Num[0], dynamo.ErrDimensionMismatch)
	}

	// Pad the numerator to the denominator length.
	b := make([]float64, n+1)
	copy(b[n+1-len(norm.Num):], norm.Num)
	a := norm.Den

	A := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		A.Set(0, j, -a[j+1])
	}
	for i := 1; i < n; i++ {
		A.Set(i, i-1, 1)
	}

	B := mat.NewVecDense(n, nil)
	B.SetVec(0, 1)

	C := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		C.SetVec(j, b[j+1]-b[0]*a[j+1])
	}

	return &StateSpace{A: A, B: B, C: C, D: b[0]}, nil
}

func (ss *StateSpace) StateDim() int {
	r, _ := ss.A.Dims()
	return r
}

func (ss *StateSpace) ControlDim() int { return 1 }

func (ss *StateSpace) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := ss.StateDim()
	var dx mat.VecDense
	dx.MulVec(ss.A, mat.NewVecDense(n, x))
	dx.AddScaledVec(&dx, input(u), ss.B)
	return dynamo.State(dx.RawVector().Data)
}

func (ss *StateSpace) Output(x dynamo.State, u dynamo.Control) float64 {
	return mat.Dot(ss.C, mat.NewVecDense(len(x), x)) + ss.D*input(u)
}

func input(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

// Poles are the eigenvalues of A, sorted by real part then imaginary part.
func (ss *StateSpace) Poles() ([]complex128, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(ss.A, mat.EigenNone); !ok {
		return nil, fmt.Errorf("lti: eigen decomposition of %dx%d state matrix failed", ss.StateDim(), ss.StateDim())
	}
	poles := eig.Values(nil)
	sort.Slice(poles, func(i, j int) bool {
		if !nearlyEqual(real(poles[i]), real(poles[j])) {
			return real(poles[i]) < real(poles[j])
		}
		return imag(poles[i]) < imag(poles[j])
	})
	return poles, nil
}

// Stable reports whether every pole lies strictly in the left half plane.
// Poles within rounding distance of the imaginary axis count as marginal.
func Stable(poles []complex128) bool {
	for _, p := range poles {
		if real(p) >= -poleTol*math.Max(1, cmplx.Abs(p)) {
			return false
		}
	}
	return true
}

const poleTol = 1e-9

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= poleTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// slowestRate is the smallest |Re(p)| over the poles, or 1 when a pole sits
// on the imaginary axis.
func slowestRate(poles []complex128) float64 {
	r := math.Inf(1)
	for _, p := range poles {
		r = math.Min(r, math.Abs(real(p)))
	}
	if r <= poleTol || math.IsInf(r, 1) || math.IsNaN(r) {
		return 1
	}
	return r
}
