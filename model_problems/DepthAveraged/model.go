package DepthAveraged

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/model_problems/IceShelf"
)

// Physics is the momentum balance of a depth averaged flow model
type Physics interface {
	DrivingStress(h *FEM2D.Field) (*FEM2D.DualVectorField, error)
	Residual(h, T *FEM2D.Field, u *FEM2D.VectorField, tau *FEM2D.DualVectorField) (*FEM2D.DualVectorField, error)
	DiagnosticSolve(h, T *FEM2D.Field, u0 *FEM2D.VectorField) (*FEM2D.VectorField, error)
	AdjointSolve(h, T *FEM2D.Field, u *FEM2D.VectorField, f *FEM2D.DualVectorField) (*FEM2D.VectorField, error)
}

// TemperatureSensitive physics can differentiate the residual with respect to temperature
type TemperatureSensitive interface {
	Physics
	TemperatureSensitivity(h, T *FEM2D.Field, u, lambda *FEM2D.VectorField) (*FEM2D.DualField, error)
}

var _ TemperatureSensitive = (*IceShelf.IceShelf)(nil)

/*
Model composes a physics implementation with the concerns shared by every depth averaged
model: naming, logging and concurrent batches of independent solves. Calls to the
Physics methods are forwarded unchanged.
*/
type Model struct {
	Physics
	Name       string
	BatchLimit int // maximum concurrent solves in a batch, zero selects runtime.NumCPU
	log        logrus.FieldLogger
}

type ModelOption func(m *Model)

func WithBatchLimit(n int) ModelOption {
	return func(m *Model) { m.BatchLimit = n }
}

func WithModelLogger(log logrus.FieldLogger) ModelOption {
	return func(m *Model) { m.log = log }
}

func NewModel(name string, physics Physics, opts ...ModelOption) (m *Model) {
	if physics == nil {
		panic("nil physics")
	}
	m = &Model{
		Physics: physics,
		Name:    name,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.BatchLimit < 1 {
		m.BatchLimit = runtime.NumCPU()
	}
	m.log = m.log.WithField("model", name)
	return
}

// NewIceShelfModel is a Model around the floating shelf physics
func NewIceShelfModel(fs *FEM2D.FunctionSpace, opts ...IceShelf.Option) *Model {
	return NewModel("ice_shelf", IceShelf.NewIceShelf(fs, opts...))
}

// Sensitivity returns the physics when it can differentiate with respect to temperature
func (m *Model) Sensitivity() (ts TemperatureSensitive, ok bool) {
	ts, ok = m.Physics.(TemperatureSensitive)
	return
}

// State is one set of inputs for a diagnostic solve
type State struct {
	Thickness, Temperature *FEM2D.Field
	Velocity               *FEM2D.VectorField // initial guess
}

/*
DiagnosticSolveBatch solves each state independently, at most BatchLimit at a time.
Results are returned in input order. The first failure cancels solves not yet started
and is returned annotated with the index of its state.
*/
func (m *Model) DiagnosticSolveBatch(ctx context.Context, states []State) (us []*FEM2D.VectorField, err error) {
	var (
		start = time.Now()
		g, gc = errgroup.WithContext(ctx)
	)
	us = make([]*FEM2D.VectorField, len(states))
	g.SetLimit(m.BatchLimit)
	for i, st := range states {
		g.Go(func() error {
			if err := gc.Err(); err != nil {
				return err
			}
			u, err := m.DiagnosticSolve(st.Thickness, st.Temperature, st.Velocity)
			if err != nil {
				return fmt.Errorf("state %d: %w", i, err)
			}
			us[i] = u
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		m.log.WithError(err).Warn("batch solve failed")
		return nil, err
	}
	m.log.WithFields(logrus.Fields{
		"states":  len(states),
		"limit":   m.BatchLimit,
		"elapsed": time.Since(start),
	}).Info("batch solve complete")
	return
}
