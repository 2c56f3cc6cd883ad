package linsolve

import (
	"errors"
)

var (
	ErrSingularOperator = errors.New("linsolve: operator is singular")
	ErrDidNotConverge   = errors.New("linsolve: iteration did not converge")
	ErrDimension        = errors.New("linsolve: dimension mismatch")
)

// Operator is a square linear map given by its entries and its action.
// MulVecTo overwrites dst with A x, or A^T x when trans is true.
type Operator interface {
	Dims() (r, c int)
	At(i, j int) float64
	MulVecTo(dst []float64, trans bool, x []float64)
}

// Solver solves A x = b. Implementations must be safe for concurrent use.
type Solver interface {
	Solve(A Operator, b []float64) (x []float64, err error)
}

// Transpose is a view of A^T sharing the storage of A
func Transpose(A Operator) Operator {
	if t, ok := A.(transposed); ok {
		return t.Operator
	}
	return transposed{A}
}

type transposed struct {
	Operator
}

func (t transposed) Dims() (r, c int) {
	c, r = t.Operator.Dims()
	return
}
func (t transposed) At(i, j int) float64 { return t.Operator.At(j, i) }
func (t transposed) MulVecTo(dst []float64, trans bool, x []float64) {
	t.Operator.MulVecTo(dst, !trans, x)
}

func checkDims(A Operator, b []float64) (n int, err error) {
	var nc int
	n, nc = A.Dims()
	if n != nc || len(b) != n {
		err = ErrDimension
	}
	return
}

// Default returns the solver used when none is configured
func Default() Solver {
	return &ConjugateGradient{Tolerance: 1.e-12, MaxIterations: 0}
}

// ByName maps configuration names onto solvers
func ByName(name string) (s Solver, err error) {
	switch name {
	case "", "cg":
		s = Default()
	case "lu":
		s = DenseLU{}
	default:
		err = errors.New("linsolve: unknown solver " + name)
	}
	return
}
