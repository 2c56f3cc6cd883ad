package DepthAveraged

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/model_problems/IceShelf"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// countingPhysics records the peak number of concurrent diagnostic solves
type countingPhysics struct {
	active, peak, calls int32
	failOn              *FEM2D.Field
}

var errFake = errors.New("fake failure")

func (cp *countingPhysics) DrivingStress(h *FEM2D.Field) (*FEM2D.DualVectorField, error) {
	return FEM2D.NewDualVectorField(h.Space()), nil
}

func (cp *countingPhysics) Residual(h, T *FEM2D.Field, u *FEM2D.VectorField,
	tau *FEM2D.DualVectorField) (*FEM2D.DualVectorField, error) {
	return FEM2D.NewDualVectorField(h.Space()), nil
}

func (cp *countingPhysics) DiagnosticSolve(h, T *FEM2D.Field, u0 *FEM2D.VectorField) (*FEM2D.VectorField, error) {
	atomic.AddInt32(&cp.calls, 1)
	n := atomic.AddInt32(&cp.active, 1)
	defer atomic.AddInt32(&cp.active, -1)
	for {
		p := atomic.LoadInt32(&cp.peak)
		if n <= p || atomic.CompareAndSwapInt32(&cp.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if h == cp.failOn {
		return nil, errFake
	}
	return u0.Scale(2), nil
}

func (cp *countingPhysics) AdjointSolve(h, T *FEM2D.Field, u *FEM2D.VectorField,
	f *FEM2D.DualVectorField) (*FEM2D.VectorField, error) {
	return FEM2D.NewVectorField(h.Space()), nil
}

func testStates(fs *FEM2D.FunctionSpace, n int) (states []State) {
	for i := 0; i < n; i++ {
		states = append(states, State{
			Thickness:   FEM2D.ConstantField(fs, 500),
			Temperature: FEM2D.ConstantField(fs, 254.15),
			Velocity: FEM2D.InterpolateVector(fs, func(x, y float64) (float64, float64) {
				return float64(i), 0
			}),
		})
	}
	return
}

func TestBatchRespectsLimitAndOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	var (
		fs     = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(1, 1, 2, 2), 1)
		cp     = &countingPhysics{}
		m      = NewModel("counting", cp, WithBatchLimit(3), WithModelLogger(quietLogger()))
		states = testStates(fs, 10)
	)
	us, err := m.DiagnosticSolveBatch(context.Background(), states)
	require.NoError(t, err)
	require.Len(t, us, len(states))
	for i, u := range us {
		assert.Equal(t, 2*float64(i), u.Data[0])
	}
	assert.LessOrEqual(t, cp.peak, int32(3))
	assert.Equal(t, int32(10), cp.calls)
}

func TestBatchFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	var (
		fs     = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(1, 1, 2, 2), 1)
		states = testStates(fs, 6)
		cp     = &countingPhysics{failOn: states[2].Thickness}
		m      = NewModel("counting", cp, WithBatchLimit(1), WithModelLogger(quietLogger()))
	)
	us, err := m.DiagnosticSolveBatch(context.Background(), states)
	assert.Nil(t, us)
	assert.ErrorIs(t, err, errFake)
	assert.Contains(t, err.Error(), "state 2")
	// Solves queued after the failure are skipped
	assert.Less(t, cp.calls, int32(6))
}

func TestBatchCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	var (
		fs          = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(1, 1, 2, 2), 1)
		cp          = &countingPhysics{}
		m           = NewModel("counting", cp, WithModelLogger(quietLogger()))
		ctx, cancel = context.WithCancel(context.Background())
	)
	cancel()
	_, err := m.DiagnosticSolveBatch(ctx, testStates(fs, 4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), cp.calls)
}

func TestIceShelfModel(t *testing.T) {
	defer goleak.VerifyNone(t)
	var (
		fs  = FEM2D.NewFunctionSpace(FEM2D.NewRectangleMesh(20000, 4000, 6, 2), 1)
		bcs = IceShelf.BoundaryConditions{
			DirichletIDs: []int{FEM2D.RectangleLeft},
			SideWallIDs:  []int{FEM2D.RectangleBottom, FEM2D.RectangleTop},
			IceFrontIDs:  []int{FEM2D.RectangleRight},
		}
		m = NewIceShelfModel(fs, IceShelf.WithBoundaryConditions(bcs),
			IceShelf.WithLogger(quietLogger()))
		h  = FEM2D.Interpolate(fs, func(x, y float64) float64 { return 500 - 100*x/20000 })
		u0 = FEM2D.InterpolateVector(fs, func(x, y float64) (float64, float64) {
			return 100 + 0.005*x, 0
		})
		states []State
	)
	m.log = quietLogger()
	_, ok := m.Sensitivity()
	assert.True(t, ok)
	for _, T := range []float64{250, 254.15, 258} {
		states = append(states, State{Thickness: h, Temperature: FEM2D.ConstantField(fs, T), Velocity: u0})
	}
	us, err := m.DiagnosticSolveBatch(context.Background(), states)
	require.NoError(t, err)
	for i, st := range states {
		u, err := m.DiagnosticSolve(st.Thickness, st.Temperature, st.Velocity)
		require.NoError(t, err)
		assert.InDeltaSlice(t, u.Data, us[i].Data, 1.e-9)
	}
	// Warmer ice is softer and moves faster at the front
	last := len(u0.Data) - 2
	assert.True(t, us[0].Norm() < us[2].Norm(), "%v %v", us[0].Data[last], us[2].Data[last])
}
