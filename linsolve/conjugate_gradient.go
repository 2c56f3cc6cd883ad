package linsolve

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ConjugateGradient solves symmetric positive definite systems with a Jacobi preconditioner.
// Iteration stops when the residual falls below Tolerance times the norm of b.
type ConjugateGradient struct {
	Tolerance     float64
	MaxIterations int // zero selects 10 times the system size
}

func (cg *ConjugateGradient) Solve(A Operator, b []float64) (x []float64, err error) {
	var n int
	if n, err = checkDims(A, b); err != nil {
		return
	}
	var (
		diag  = make([]float64, n)
		r     = append([]float64(nil), b...)
		z     = make([]float64, n)
		p     = make([]float64, n)
		Ap    = make([]float64, n)
		bNorm = floats.Norm(b, 2)
		tol   = cg.Tolerance
		maxIt = cg.MaxIterations
	)
	x = make([]float64, n)
	if bNorm == 0 {
		return
	}
	if tol <= 0 {
		tol = 1.e-12
	}
	if maxIt <= 0 {
		maxIt = 10 * n
	}
	for i := range diag {
		if diag[i] = A.At(i, i); !(diag[i] > 0) {
			return nil, ErrSingularOperator
		}
	}
	floats.DivTo(z, r, diag)
	copy(p, z)
	rz := floats.Dot(r, z)
	for it := 0; it < maxIt; it++ {
		A.MulVecTo(Ap, false, p)
		pAp := floats.Dot(p, Ap)
		if pAp <= 0 || math.IsNaN(pAp) {
			return nil, ErrSingularOperator
		}
		alpha := rz / pAp
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, Ap)
		if floats.Norm(r, 2) <= tol*bNorm {
			return
		}
		floats.DivTo(z, r, diag)
		rzNew := floats.Dot(r, z)
		beta := rzNew / rz
		rz = rzNew
		// p = z + beta p
		floats.AddScaledTo(p, z, beta, p)
	}
	return nil, ErrDidNotConverge
}
