package inverse

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/model_problems/DepthAveraged"
)

var (
	ErrInvalidProblem = errors.New("inverse: invalid problem")
	ErrNoSensitivity  = errors.New("inverse: physics has no temperature sensitivity")
)

/*
Problem estimates the temperature T from an observed velocity by minimizing

	J(T) = 1/2 int |u(T) - u_obs|^2 / sigma^2 dx + 1/2 alpha^2 int |grad T|^2 dx

where u(T) is the diagnostic solution of the model for the fixed thickness.
*/
type Problem struct {
	Model     *DepthAveraged.Model
	Thickness *FEM2D.Field
	Velocity0 *FEM2D.VectorField // initial guess for every forward solve
	Observed  *FEM2D.VectorField
	Sigma     float64 // observational standard deviation, m/a
	Alpha     float64 // smoothing length, m
	Log       logrus.FieldLogger
}

func (p *Problem) validate() (ts DepthAveraged.TemperatureSensitive, err error) {
	switch {
	case p.Model == nil || p.Thickness == nil || p.Velocity0 == nil || p.Observed == nil:
		return nil, fmt.Errorf("%w: model, thickness, initial and observed velocity are required", ErrInvalidProblem)
	case !(p.Sigma > 0):
		return nil, fmt.Errorf("%w: sigma must be positive, have %v", ErrInvalidProblem, p.Sigma)
	case p.Alpha < 0:
		return nil, fmt.Errorf("%w: alpha must not be negative, have %v", ErrInvalidProblem, p.Alpha)
	case p.Observed.Space() != p.Thickness.Space() || p.Velocity0.Space() != p.Thickness.Space():
		return nil, fmt.Errorf("%w: fields live on different function spaces", ErrInvalidProblem)
	}
	var ok bool
	if ts, ok = p.Model.Sensitivity(); !ok {
		return nil, ErrNoSensitivity
	}
	if p.Log == nil {
		p.Log = logrus.StandardLogger()
	}
	return
}

func (p *Problem) space() *FEM2D.FunctionSpace { return p.Thickness.Space() }

// Misfit is 1/2 int |u - u_obs|^2 / sigma^2 dx
func (p *Problem) Misfit(u *FEM2D.VectorField) float64 {
	var (
		fs  = p.space()
		sum float64
	)
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				a = u.ValueAt(k, q)
				b = p.Observed.ValueAt(k, q)
				d = [2]float64{a[0] - b[0], a[1] - b[1]}
			)
			sum += fs.WeightAt(k, q) * (d[0]*d[0] + d[1]*d[1])
		}
	}
	return 0.5 * sum / (p.Sigma * p.Sigma)
}

// Regularization is 1/2 alpha^2 int |grad T|^2 dx
func (p *Problem) Regularization(T *FEM2D.Field) float64 {
	var (
		fs     = p.space()
		dx, dy = make([]float64, fs.Np()), make([]float64, fs.Np())
		sum    float64
	)
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			gx, gy := T.GradAt(k, q, dx, dy)
			sum += fs.WeightAt(k, q) * (gx*gx + gy*gy)
		}
	}
	return 0.5 * p.Alpha * p.Alpha * sum
}

// misfitDerivative is the derivative of the misfit with respect to the velocity
func (p *Problem) misfitDerivative(u *FEM2D.VectorField) (f *FEM2D.DualVectorField) {
	var (
		fs = p.space()
		s2 = p.Sigma * p.Sigma
	)
	f = FEM2D.NewDualVectorField(fs)
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				a = u.ValueAt(k, q)
				b = p.Observed.ValueAt(k, q)
				w = fs.WeightAt(k, q) / s2
			)
			for i, n := range fs.ElementNodes[k] {
				phi := fs.Phi[q][i]
				f.Data[2*n] += w * (a[0] - b[0]) * phi
				f.Data[2*n+1] += w * (a[1] - b[1]) * phi
			}
		}
	}
	return
}

func (p *Problem) regularizationGradient(T *FEM2D.Field) (g *FEM2D.DualField) {
	var (
		fs     = p.space()
		dx, dy = make([]float64, fs.Np()), make([]float64, fs.Np())
		a2     = p.Alpha * p.Alpha
	)
	g = FEM2D.NewDualField(fs)
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				gx, gy = T.GradAt(k, q, dx, dy)
				w      = a2 * fs.WeightAt(k, q)
			)
			for i, n := range fs.ElementNodes[k] {
				g.Data[n] += w * (gx*dx[i] + gy*dy[i])
			}
		}
	}
	return
}

// Forward solves for the velocity at temperature T
func (p *Problem) Forward(T *FEM2D.Field) (u *FEM2D.VectorField, err error) {
	if _, err = p.validate(); err != nil {
		return
	}
	return p.Model.DiagnosticSolve(p.Thickness, T, p.Velocity0)
}

// Objective evaluates J at temperature T, returning the forward solution with it
func (p *Problem) Objective(T *FEM2D.Field) (J float64, u *FEM2D.VectorField, err error) {
	if u, err = p.Forward(T); err != nil {
		return
	}
	J = p.Misfit(u) + p.Regularization(T)
	return
}

/*
Gradient returns dJ/dT at the nodal temperatures given the forward solution u at T. The
misfit part takes one adjoint solve, tangent(u)^T lambda = dMisfit/du, followed by
-lambda^T dF/dT.
*/
func (p *Problem) Gradient(T *FEM2D.Field, u *FEM2D.VectorField) (g *FEM2D.DualField, err error) {
	var ts DepthAveraged.TemperatureSensitive
	if ts, err = p.validate(); err != nil {
		return
	}
	var lambda *FEM2D.VectorField
	if lambda, err = ts.AdjointSolve(p.Thickness, T, u, p.misfitDerivative(u)); err != nil {
		return
	}
	if g, err = ts.TemperatureSensitivity(p.Thickness, T, u, lambda); err != nil {
		return
	}
	g = g.Add(p.regularizationGradient(T))
	return
}
