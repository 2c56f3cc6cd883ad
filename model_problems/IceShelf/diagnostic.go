package IceShelf

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goice/FEM2D"
)

// NewtonResult reports a diagnostic solve
type NewtonResult struct {
	Velocity     *FEM2D.VectorField
	Iterations   int
	InitialNorm  float64
	ResidualNorm float64
	NormHistory  []float64 // residual norm at the start and after every update
	Elapsed      time.Duration
}

// DiagnosticSolve finds the velocity balancing the driving stress, starting from u0.
// Constrained degrees of freedom keep the values they have in u0.
func (is *IceShelf) DiagnosticSolve(h, T *FEM2D.Field, u0 *FEM2D.VectorField) (u *FEM2D.VectorField, err error) {
	var nr *NewtonResult
	if nr, err = is.NewtonSolve(h, T, u0); err != nil {
		return
	}
	u = nr.Velocity
	return
}

/*
NewtonSolve iterates u <- u + du with tangent(u) du = -residual(u) until the residual
norm is at most Tolerance * max(initial norm, 1). The iteration count is the number of
Newton updates applied, so an initial guess that already satisfies the test returns
after zero iterations.
*/
func (is *IceShelf) NewtonSolve(h, T *FEM2D.Field, u0 *FEM2D.VectorField) (nr *NewtonResult, err error) {
	if err = is.checkSpace([]string{"thickness", "temperature", "initial velocity"},
		h.Space(), T.Space(), u0.Space()); err != nil {
		return
	}
	var (
		start = time.Now()
		tau   *FEM2D.DualVectorField
		r     *FEM2D.DualVectorField
		u     = u0.Copy()
	)
	if tau, err = is.DrivingStress(h); err != nil {
		return
	}
	if r, err = is.Residual(h, T, u, tau); err != nil {
		return
	}
	nr = &NewtonResult{InitialNorm: r.Norm()}
	var (
		norm   = nr.InitialNorm
		target = is.Tolerance * math.Max(nr.InitialNorm, 1)
		k      int
	)
	nr.NormHistory = append(nr.NormHistory, norm)
	for !(norm <= target) && k < is.MaxIterations {
		K, err := is.Tangent(h, T, u)
		if err != nil {
			return nil, err
		}
		rhs := r.Scale(-1).Data
		du, err := is.solver.Solve(K, rhs)
		if err != nil {
			is.log.WithFields(logrus.Fields{
				"iteration": k,
				"residual":  norm,
			}).WithError(err).Warn("linear solve failed")
			return nil, &LinearSolveError{Iteration: k, Wrapped: err}
		}
		for i := range u.Data {
			u.Data[i] += du[i]
		}
		k++
		if r, err = is.Residual(h, T, u, tau); err != nil {
			return nil, err
		}
		norm = r.Norm()
		nr.NormHistory = append(nr.NormHistory, norm)
		is.log.WithFields(logrus.Fields{
			"iteration": k,
			"residual":  norm,
			"target":    target,
		}).Debug("newton step")
	}
	nr.Iterations, nr.ResidualNorm, nr.Elapsed = k, norm, time.Since(start)
	if !(norm <= target) {
		is.log.WithFields(logrus.Fields{
			"iterations": k,
			"residual":   norm,
			"initial":    nr.InitialNorm,
		}).Warn("diagnostic solve did not converge")
		return nil, &NonConvergenceError{
			Iterations:   k,
			ResidualNorm: norm,
			InitialNorm:  nr.InitialNorm,
			Velocity:     u,
		}
	}
	nr.Velocity = u
	is.log.WithFields(logrus.Fields{
		"iterations": k,
		"residual":   norm,
		"elapsed":    nr.Elapsed,
	}).Info("diagnostic solve converged")
	return
}
