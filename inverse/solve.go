package inverse

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/notargets/goice/FEM2D"
)

// Result of an inversion
type Result struct {
	Temperature    *FEM2D.Field
	Velocity       *FEM2D.VectorField
	Objective      float64
	Misfit         float64
	Regularization float64
	Iterations     int
	Evaluations    int
	Status         optimize.Status
	Elapsed        time.Duration
}

// evaluator shares one forward solve between the objective and gradient at the same point
type evaluator struct {
	p      *Problem
	x      []float64
	u      *FEM2D.VectorField
	solves int
}

func (e *evaluator) field(x []float64) (T *FEM2D.Field) {
	T = FEM2D.NewField(e.p.space())
	copy(T.Data, x)
	return
}

func (e *evaluator) forward(x []float64) (u *FEM2D.VectorField, err error) {
	if e.x != nil && floats.Equal(e.x, x) {
		return e.u, nil
	}
	e.solves++
	if u, err = e.p.Forward(e.field(x)); err != nil {
		return
	}
	e.x, e.u = append(e.x[:0], x...), u
	return
}

func (e *evaluator) Func(x []float64) float64 {
	u, err := e.forward(x)
	if err != nil {
		e.p.Log.WithError(err).Debug("forward solve failed, rejecting step")
		return math.Inf(1)
	}
	return e.p.Misfit(u) + e.p.Regularization(e.field(x))
}

func (e *evaluator) Grad(grad, x []float64) {
	var (
		g   *FEM2D.DualField
		u   *FEM2D.VectorField
		err error
	)
	if u, err = e.forward(x); err == nil {
		g, err = e.p.Gradient(e.field(x), u)
	}
	if err != nil {
		e.p.Log.WithError(err).Warn("gradient evaluation failed")
		for i := range grad {
			grad[i] = math.NaN()
		}
		return
	}
	copy(grad, g.Data)
}

/*
Solve minimizes the objective over the nodal temperatures with L-BFGS, starting from T0.
A backtracking line search is used so that trial temperatures whose forward solve fails,
which evaluate to +Inf, shorten the step. Nil settings select gonum's defaults. When the optimizer stops with an
error the best point found is still returned alongside it.
*/
func (p *Problem) Solve(T0 *FEM2D.Field, settings *optimize.Settings) (res *Result, err error) {
	if _, err = p.validate(); err != nil {
		return
	}
	var (
		start = time.Now()
		e     = &evaluator{p: p}
		prob  = optimize.Problem{Func: e.Func, Grad: e.Grad}
		lbfgs = &optimize.LBFGS{Linesearcher: &optimize.Backtracking{}}
	)
	if settings != nil {
		s := *settings
		s.Concurrent = 0
		settings = &s
	}
	or, minErr := optimize.Minimize(prob, append([]float64(nil), T0.Data...), settings, lbfgs)
	if minErr != nil {
		p.Log.WithError(minErr).Warn("inversion stopped early")
	}
	if or == nil {
		return nil, minErr
	}
	res = &Result{
		Temperature: e.field(or.X),
		Iterations:  or.MajorIterations,
		Evaluations: e.solves,
		Status:      or.Status,
	}
	var J float64
	if J, res.Velocity, err = p.Objective(res.Temperature); err != nil {
		return nil, err
	}
	res.Objective = J
	res.Misfit = p.Misfit(res.Velocity)
	res.Regularization = p.Regularization(res.Temperature)
	res.Elapsed = time.Since(start)
	p.Log.WithFields(logrus.Fields{
		"objective":   res.Objective,
		"misfit":      res.Misfit,
		"iterations":  res.Iterations,
		"evaluations": res.Evaluations,
		"status":      res.Status,
	}).Info("inversion complete")
	return res, minErr
}
