package linsolve

import (
	"gonum.org/v1/gonum/mat"
)

type denser interface {
	ToDense() *mat.Dense
}

// DenseLU factors a dense copy of the operator with partial pivoting.
// It suits small systems and serves as a reference for the iterative solver.
type DenseLU struct{}

func (DenseLU) Solve(A Operator, b []float64) (x []float64, err error) {
	var n int
	if n, err = checkDims(A, b); err != nil {
		return
	}
	var (
		D  *mat.Dense
		lu mat.LU
		xv = mat.NewVecDense(n, nil)
	)
	if dd, ok := A.(denser); ok {
		D = dd.ToDense()
	} else {
		D = mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				D.Set(i, j, A.At(i, j))
			}
		}
	}
	lu.Factorize(D)
	if err = lu.SolveVecTo(xv, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		// mat.Condition reports an ill conditioned or exactly singular factorization
		return nil, ErrSingularOperator
	}
	x = xv.RawVector().Data
	return
}
