package IceShelf

import (
	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/linsolve"
)

/*
AdjointSolve solves tangent(u)^T lambda = f once, with the tangent built at the converged
velocity u. Right hand side entries at constrained degrees of freedom are dropped, so
lambda vanishes there.
*/
func (is *IceShelf) AdjointSolve(h, T *FEM2D.Field, u *FEM2D.VectorField,
	f *FEM2D.DualVectorField) (lambda *FEM2D.VectorField, err error) {
	if err = is.checkSpace([]string{"thickness", "temperature", "velocity", "adjoint rhs"},
		h.Space(), T.Space(), u.Space(), f.Space()); err != nil {
		return
	}
	K, err := is.Tangent(h, T, u)
	if err != nil {
		return
	}
	rhs := f.Copy().Data
	is.constraints.zeroRows(rhs)
	var x []float64
	if x, err = is.solver.Solve(linsolve.Transpose(K), rhs); err != nil {
		is.log.WithError(err).Warn("adjoint solve failed")
		return nil, &LinearSolveError{Iteration: -1, Wrapped: err}
	}
	lambda = FEM2D.NewVectorField(is.Space)
	copy(lambda.Data, x)
	return
}

/*
TemperatureSensitivity is the action of -lambda^T dF/dT on each scalar basis function,

	g_j = -int h B'(T) psi_j e_eff^(1/n-1) (e(u) + tr(e(u)) I) : e(lambda) dx

Combined with AdjointSolve it yields the derivative of a functional of the velocity
with respect to the temperature.
*/
func (is *IceShelf) TemperatureSensitivity(h, T *FEM2D.Field,
	u, lambda *FEM2D.VectorField) (g *FEM2D.DualField, err error) {
	if err = is.checkSpace([]string{"thickness", "temperature", "velocity", "adjoint"},
		h.Space(), T.Space(), u.Space(), lambda.Space()); err != nil {
		return
	}
	fs := is.Space
	g = FEM2D.NewDualField(fs)
	g.Data = is.assembleVector(fs.NumNodes, func(k int, buf []float64, sc *elementScratch) {
		nodes := fs.ElementNodes[k]
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				w  = fs.WeightAt(k, q)
				Tq = T.ValueAt(k, q)
				hq = h.ValueAt(k, q)
				vs = is.viscousStateAt(hq, 1, u.GradAt(k, q, sc.dx, sc.dy))
				L  = lambda.GradAt(k, q, sc.dx, sc.dy)
				eL = [3]float64{L[0][0], L[1][1], 0.5 * (L[0][1] + L[1][0])}
				// vs.coef carries h e_eff^(1/n-1) with unit rigidity
				c = -w * RigidityDerivative(Tq) * vs.coef * strainInner(vs.strain, eL)
			)
			for i, n := range nodes {
				buf[n] += c * fs.Phi[q][i]
			}
		}
	})
	return
}
