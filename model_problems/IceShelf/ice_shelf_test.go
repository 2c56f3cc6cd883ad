package IceShelf

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/linsolve"
)

const (
	rampL   = 20000.
	rampW   = 4000.
	rampH0  = 500.
	rampDH  = 100.
	rampT   = 254.15
	rampUIn = 100.
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func rampBCs() BoundaryConditions {
	return BoundaryConditions{
		DirichletIDs: []int{FEM2D.RectangleLeft},
		SideWallIDs:  []int{FEM2D.RectangleBottom, FEM2D.RectangleTop},
		IceFrontIDs:  []int{FEM2D.RectangleRight},
	}
}

type rampShelf struct {
	fs   *FEM2D.FunctionSpace
	h, T *FEM2D.Field
	is   *IceShelf
}

// A shelf thinning linearly toward its front, confined by two walls
func newRampShelf(order, nx, ny int, opts ...Option) (rs *rampShelf) {
	fs := FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(rampL, rampW, nx, ny), order)
	opts = append([]Option{WithBoundaryConditions(rampBCs()), WithLogger(quietLogger())}, opts...)
	return &rampShelf{
		fs: fs,
		h:  FEM2D.Interpolate(fs, func(x, y float64) float64 { return rampH0 - rampDH*x/rampL }),
		T:  FEM2D.ConstantField(fs, rampT),
		is: NewIceShelf(fs, opts...),
	}
}

func (rs *rampShelf) guess(slope float64) *FEM2D.VectorField {
	return FEM2D.InterpolateVector(rs.fs, func(x, y float64) (float64, float64) {
		return rampUIn + slope*x, 0
	})
}

// Exact velocity of the one dimensional confined shelf with a free front at x = L
func rampExact(x float64) float64 {
	var (
		n = GlenN
		c = math.Pow(RhoIce*Buoyancy()*Gravity/(4*Rigidity(rampT)), n)
		h = rampH0 - rampDH*x/rampL
	)
	return rampUIn + c*(math.Pow(rampH0, n+1)-math.Pow(h, n+1))*rampL/((n+1)*rampDH)
}

func TestRheology(t *testing.T) {
	// The two Arrhenius branches nearly agree at the transition temperature
	below, above := RateFactor(TransitionT-1.e-9), RateFactor(TransitionT+1.e-9)
	assert.InEpsilon(t, below, above, 0.15)
	assert.True(t, Rigidity(250) > Rigidity(260))
	dT := 1.e-4
	for _, T := range []float64{240, 255, 268} {
		fd := (Rigidity(T+dT) - Rigidity(T-dT)) / (2 * dT)
		assert.InEpsilon(t, fd, RigidityDerivative(T), 1.e-6)
	}
}

func TestDrivingStress(t *testing.T) {
	rs := newRampShelf(2, 4, 2)
	{ // Zero thickness gives a zero functional
		tau, err := rs.is.DrivingStress(FEM2D.ConstantField(rs.fs, 0))
		require.NoError(t, err)
		for _, v := range tau.Data {
			assert.Equal(t, 0., v)
		}
	}
	{ // Paired with a unit x velocity: interior term plus the front term
		tau, err := rs.is.DrivingStress(rs.h)
		require.NoError(t, err)
		ex := FEM2D.InterpolateVector(rs.fs, func(x, y float64) (float64, float64) { return 1, 0 })
		var (
			a        = rampDH / rampL
			hMean    = rampH0 - 0.5*rampDH
			interior = RhoIce * Gravity * Buoyancy() * a * hMean * rampL * rampW
			h1       = rampH0 - rampDH
			front    = 0.5 * RhoIce * Gravity * Buoyancy() * h1 * h1 * rampW
		)
		assert.InEpsilon(t, interior+front, tau.Apply(ex), 1.e-10)
		ey := FEM2D.InterpolateVector(rs.fs, func(x, y float64) (float64, float64) { return 0, 1 })
		assert.InDelta(t, 0., tau.Apply(ey), 1.e-9*(interior+front))
	}
}

func TestResidualAtRest(t *testing.T) {
	rs := newRampShelf(1, 4, 2)
	u := FEM2D.NewVectorField(rs.fs)
	tau, err := rs.is.DrivingStress(rs.h)
	require.NoError(t, err)
	r, err := rs.is.Residual(rs.h, rs.T, u, tau)
	require.NoError(t, err)
	assert.True(t, allFinite(r.Data))
	K, err := rs.is.Tangent(rs.h, rs.T, u)
	require.NoError(t, err)
	raw := K.RawMatrix()
	assert.True(t, allFinite(raw.Data))
	assert.True(t, K.IsSymmetric(1.e-9*maxAbs(raw.Data)))
	for _, d := range K.Diagonal() {
		assert.True(t, d > 0)
	}
	// Constrained rows of the residual vanish
	for _, dof := range rs.is.ConstrainedDOFs() {
		assert.Equal(t, 0., r.Data[dof])
	}
}

func TestTangentMatchesResidualDerivative(t *testing.T) {
	var (
		rs    = newRampShelf(2, 3, 2)
		rng   = rand.New(rand.NewSource(1))
		fixed = make(map[int]bool)
		u     = FEM2D.InterpolateVector(rs.fs, func(x, y float64) (float64, float64) {
			return rampUIn + 0.008*x + 0.001*y, 0.002*x - 0.001*y
		})
		v   = FEM2D.NewVectorField(rs.fs)
		eps = 1.e-3
	)
	for _, dof := range rs.is.ConstrainedDOFs() {
		fixed[dof] = true
	}
	for i := range v.Data {
		if !fixed[i] {
			v.Data[i] = rng.Float64() - 0.5
		}
	}
	tau, err := rs.is.DrivingStress(rs.h)
	require.NoError(t, err)
	K, err := rs.is.Tangent(rs.h, rs.T, u)
	require.NoError(t, err)
	Kv := K.MulVec(v.Data)
	rp, err := rs.is.Residual(rs.h, rs.T, u.AXPY(eps, v), tau)
	require.NoError(t, err)
	rm, err := rs.is.Residual(rs.h, rs.T, u.AXPY(-eps, v), tau)
	require.NoError(t, err)
	scale := maxAbs(Kv)
	for i := range Kv {
		fd := (rp.Data[i] - rm.Data[i]) / (2 * eps)
		assert.InDelta(t, fd, Kv[i], 1.e-5*scale, "dof %d", i)
	}
}

func TestExactSolutionConvergesImmediately(t *testing.T) {
	var (
		fs = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(rampL, rampW, 6, 2), 1)
		is = NewIceShelf(fs, WithLogger(quietLogger()), WithBoundaryConditions(BoundaryConditions{
			DirichletIDs: []int{1, 2, 3, 4},
		}))
		h  = FEM2D.ConstantField(fs, rampH0)
		T  = FEM2D.ConstantField(fs, rampT)
		u0 = FEM2D.InterpolateVector(fs, func(x, y float64) (float64, float64) {
			return rampUIn + 0.01*x, -0.003 * y
		})
	)
	nr, err := is.NewtonSolve(h, T, u0)
	require.NoError(t, err)
	assert.Equal(t, 0, nr.Iterations)
	assert.Len(t, nr.NormHistory, 1)
	assert.Equal(t, nr.InitialNorm, nr.ResidualNorm)
	assert.Equal(t, u0.Data, nr.Velocity.Data)
}

func TestRampShelfMatchesAnalyticSolution(t *testing.T) {
	rs := newRampShelf(2, 10, 2)
	nr, err := rs.is.NewtonSolve(rs.h, rs.T, rs.guess(0.005))
	require.NoError(t, err)
	assert.True(t, nr.Iterations >= 1 && nr.Iterations <= rs.is.MaxIterations)
	assert.LessOrEqual(t, nr.ResidualNorm, rs.is.Tolerance*math.Max(nr.InitialNorm, 1))
	assert.Equal(t, nr.Iterations+1, len(nr.NormHistory))

	// The reported norm is the norm of the residual at the returned velocity
	tau, err := rs.is.DrivingStress(rs.h)
	require.NoError(t, err)
	r, err := rs.is.Residual(rs.h, rs.T, nr.Velocity, tau)
	require.NoError(t, err)
	assert.InDelta(t, nr.ResidualNorm, r.Norm(), 1.e-12*math.Max(nr.InitialNorm, 1))

	for n := 0; n < rs.fs.NumNodes; n++ {
		x := rs.fs.NodeX[n]
		want := rampExact(x)
		assert.InEpsilon(t, want, nr.Velocity.Data[2*n], 0.01, "node %d at x = %v", n, x)
		assert.InDelta(t, 0., nr.Velocity.Data[2*n+1], 0.5)
	}
	// Inflow values are held
	for _, n := range rs.fs.BoundaryNodes(FEM2D.RectangleLeft) {
		assert.Equal(t, rampUIn, nr.Velocity.Data[2*n])
	}
}

func TestNonConvergence(t *testing.T) {
	rs := newRampShelf(1, 6, 2, WithMaxIterations(1))
	u0 := rs.guess(0)
	_, err := rs.is.DiagnosticSolve(rs.h, rs.T, u0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonConvergence))
	var nce *NonConvergenceError
	require.True(t, errors.As(err, &nce))
	assert.Equal(t, 1, nce.Iterations)
	assert.True(t, nce.ResidualNorm > 0)
	require.NotNil(t, nce.Velocity)
	assert.NotEqual(t, u0.Data, nce.Velocity.Data)
	// The initial guess is not modified
	assert.Equal(t, rs.guess(0).Data, u0.Data)
}

type failingSolver struct {
	mu    sync.Mutex
	calls int
}

func (fs *failingSolver) Solve(A linsolve.Operator, b []float64) ([]float64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls++
	return nil, linsolve.ErrSingularOperator
}

func TestLinearSolveFailure(t *testing.T) {
	solver := &failingSolver{}
	rs := newRampShelf(1, 4, 2, WithLinearSolver(solver))
	_, err := rs.is.DiagnosticSolve(rs.h, rs.T, rs.guess(0.005))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinearSolve))
	assert.True(t, errors.Is(err, linsolve.ErrSingularOperator))
	assert.False(t, errors.Is(err, ErrNonConvergence))
	var lse *LinearSolveError
	require.True(t, errors.As(err, &lse))
	assert.Equal(t, 0, lse.Iteration)
	assert.Equal(t, 1, solver.calls)

	_, err = rs.is.AdjointSolve(rs.h, rs.T, rs.guess(0.005), FEM2D.NewDualVectorField(rs.fs))
	assert.True(t, errors.Is(err, linsolve.ErrSingularOperator))
}

func TestInvalidInput(t *testing.T) {
	var (
		rs    = newRampShelf(1, 4, 2)
		other = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(rampL, rampW, 4, 2), 1)
		hBad  = FEM2D.ConstantField(other, rampH0)
		uBad  = FEM2D.NewVectorField(other)
		u     = rs.guess(0.005)
	)
	_, err := rs.is.DrivingStress(hBad)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = rs.is.DiagnosticSolve(hBad, rs.T, u)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = rs.is.DiagnosticSolve(rs.h, rs.T, uBad)
	assert.ErrorIs(t, err, ErrInvalidInput)
	tau, err := rs.is.DrivingStress(rs.h)
	require.NoError(t, err)
	_, err = rs.is.Residual(rs.h, FEM2D.ConstantField(other, rampT), u, tau)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = rs.is.AdjointSolve(rs.h, rs.T, u, FEM2D.NewDualVectorField(other))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSlantedSideWallWarning(t *testing.T) {
	var (
		VX   = []float64{0, 1000, 1000, 0}
		VY   = []float64{0, 0, 1500, 1000}
		EToV = [][3]int{{0, 1, 2}, {0, 2, 3}}
		tags = map[FEM2D.EdgeNumber]int{
			FEM2D.NewEdgeNumber([2]int{0, 3}): 1,
			FEM2D.NewEdgeNumber([2]int{1, 2}): 2,
			FEM2D.NewEdgeNumber([2]int{0, 1}): 3,
			FEM2D.NewEdgeNumber([2]int{2, 3}): 4,
		}
		fs  = FEM2D.NewFunctionSpace(FEM2D.NewTriangulation(VX, VY, EToV, tags), 1)
		bcs = BoundaryConditions{
			DirichletIDs: []int{1},
			IceFrontIDs:  []int{2},
			SideWallIDs:  []int{3, 4},
		}
	)
	log, hook := logtest.NewNullLogger()
	is := NewIceShelf(fs, WithLogger(log), WithBoundaryConditions(bcs))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["faces"])
	assert.Equal(t, []int{4}, entry.Data["tags"])
	assert.InDelta(t, 0.5/math.Sqrt(1.25), entry.Data["max_slant"], 1.e-12)
	// Dirichlet nodes 0 and 3, y held on both walls
	assert.Equal(t, []int{0, 1, 3, 5, 6, 7}, is.ConstrainedDOFs())

	// Axis aligned walls are silent
	hook.Reset()
	NewIceShelf(FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(rampL, rampW, 4, 2), 1),
		WithLogger(log), WithBoundaryConditions(rampBCs()))
	assert.Nil(t, hook.LastEntry())
}

func TestConstructionPanics(t *testing.T) {
	fs := FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(1, 1, 1, 1), 1)
	assert.Panics(t, func() { NewIceShelf(fs, WithTolerance(0)) })
	assert.Panics(t, func() { NewIceShelf(fs, WithMaxIterations(0)) })
	assert.Panics(t, func() { NewIceShelf(fs, WithStrainRateMin(-1)) })
	is := NewIceShelf(fs)
	assert.Equal(t, DefaultTolerance, is.Tolerance)
	assert.Equal(t, DefaultMaxIterations, is.MaxIterations)
}

func TestAdjoint(t *testing.T) {
	var (
		rs  = newRampShelf(1, 6, 2)
		rng = rand.New(rand.NewSource(7))
	)
	u, err := rs.is.DiagnosticSolve(rs.h, rs.T, rs.guess(0.005))
	require.NoError(t, err)
	f1, f2 := FEM2D.NewDualVectorField(rs.fs), FEM2D.NewDualVectorField(rs.fs)
	for i := range f1.Data {
		f1.Data[i], f2.Data[i] = rng.Float64()-0.5, rng.Float64()-0.5
	}
	l1, err := rs.is.AdjointSolve(rs.h, rs.T, u, f1)
	require.NoError(t, err)
	l2, err := rs.is.AdjointSolve(rs.h, rs.T, u, f2)
	require.NoError(t, err)
	l12, err := rs.is.AdjointSolve(rs.h, rs.T, u, f1.Add(f2))
	require.NoError(t, err)
	sum := l1.Add(l2)
	scale := maxAbs(sum.Data)
	for i := range sum.Data {
		assert.InDelta(t, sum.Data[i], l12.Data[i], 1.e-8*scale)
	}

	// For any w vanishing on constrained dofs, <K w, lambda> = <f, w>
	fixed := make(map[int]bool)
	for _, dof := range rs.is.ConstrainedDOFs() {
		fixed[dof] = true
		assert.Equal(t, 0., l1.Data[dof])
	}
	w := FEM2D.NewVectorField(rs.fs)
	for i := range w.Data {
		if !fixed[i] {
			w.Data[i] = rng.Float64() - 0.5
		}
	}
	K, err := rs.is.Tangent(rs.h, rs.T, u)
	require.NoError(t, err)
	Kw := K.MulVec(w.Data)
	var lhs float64
	for i := range Kw {
		lhs += Kw[i] * l1.Data[i]
	}
	assert.InEpsilon(t, f1.Apply(w), lhs, 1.e-6)
}

func TestTemperatureSensitivity(t *testing.T) {
	var (
		rs     = newRampShelf(1, 4, 2)
		rng    = rand.New(rand.NewSource(3))
		u      = rs.guess(0.008)
		lambda = FEM2D.NewVectorField(rs.fs)
		dT     = FEM2D.NewField(rs.fs)
		eps    = 1.e-3
	)
	for i := range lambda.Data {
		lambda.Data[i] = rng.Float64() - 0.5
	}
	for i := range dT.Data {
		dT.Data[i] = rng.Float64()
	}
	g, err := rs.is.TemperatureSensitivity(rs.h, rs.T, u, lambda)
	require.NoError(t, err)
	tau, err := rs.is.DrivingStress(rs.h)
	require.NoError(t, err)
	// Compare against lambda^T dF/dT dT by central differences on unconstrained rows
	is := NewIceShelf(rs.fs, WithLogger(quietLogger()))
	rp, err := is.Residual(rs.h, rs.T.AXPY(eps, dT), u, tau)
	require.NoError(t, err)
	rm, err := is.Residual(rs.h, rs.T.AXPY(-eps, dT), u, tau)
	require.NoError(t, err)
	var fd float64
	for i := range rp.Data {
		fd -= lambda.Data[i] * (rp.Data[i] - rm.Data[i]) / (2 * eps)
	}
	assert.InEpsilon(t, fd, g.Apply(dT), 1.e-5)
}

func TestParallelAssemblyIsDeterministic(t *testing.T) {
	var (
		serial = newRampShelf(2, 6, 3, WithParallelDegree(1))
		u      = serial.guess(0.007)
	)
	tau1, err := serial.is.DrivingStress(serial.h)
	require.NoError(t, err)
	r1, err := serial.is.Residual(serial.h, serial.T, u, tau1)
	require.NoError(t, err)
	pis := NewIceShelf(serial.fs, WithParallelDegree(5), WithLogger(quietLogger()),
		WithBoundaryConditions(rampBCs()))
	tau2, err := pis.DrivingStress(serial.h)
	require.NoError(t, err)
	r2, err := pis.Residual(serial.h, serial.T, u, tau2)
	require.NoError(t, err)
	scale := maxAbs(r1.Data)
	for i := range r1.Data {
		assert.InDelta(t, r1.Data[i], r2.Data[i], 1.e-12*scale)
	}
	// The tangent is scattered in element order whatever the partitioning
	K1, err := serial.is.Tangent(serial.h, serial.T, u)
	require.NoError(t, err)
	K2, err := pis.Tangent(serial.h, serial.T, u)
	require.NoError(t, err)
	raw1, raw2 := K1.RawMatrix(), K2.RawMatrix()
	assert.Equal(t, raw1.Indptr, raw2.Indptr)
	assert.Equal(t, raw1.Ind, raw2.Ind)
	assert.Equal(t, raw1.Data, raw2.Data)

	// Independent solves on one model may run concurrently
	var (
		wg      sync.WaitGroup
		results = make([]*FEM2D.VectorField, 4)
		errs    = make([]error, 4)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = pis.DiagnosticSolve(serial.h, serial.T, u)
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Data, results[i].Data)
	}
}

func TestRepeatedSolvesAreIdentical(t *testing.T) {
	var (
		rs = newRampShelf(2, 6, 2, WithParallelDegree(3))
		u0 = rs.guess(0.005)
	)
	ref, err := rs.is.DiagnosticSolve(rs.h, rs.T, u0)
	require.NoError(t, err)
	f := FEM2D.NewDualVectorField(rs.fs)
	for i := range f.Data {
		f.Data[i] = 1 / float64(i+1)
	}
	lref, err := rs.is.AdjointSolve(rs.h, rs.T, ref, f)
	require.NoError(t, err)
	for n := 0; n < 10; n++ {
		u, err := rs.is.DiagnosticSolve(rs.h, rs.T, u0)
		require.NoError(t, err)
		require.Equal(t, ref.Data, u.Data, "solve %d", n)
		lambda, err := rs.is.AdjointSolve(rs.h, rs.T, u, f)
		require.NoError(t, err)
		require.Equal(t, lref.Data, lambda.Data, "adjoint %d", n)
	}
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func maxAbs(v []float64) (m float64) {
	for _, f := range v {
		m = math.Max(m, math.Abs(f))
	}
	return
}
