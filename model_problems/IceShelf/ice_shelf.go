package IceShelf

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/linsolve"
	"github.com/notargets/goice/utils"
)

const (
	DefaultTolerance     = 1.e-6
	DefaultMaxIterations = 20
)

/*
IceShelf solves the shallow shelf stress balance for a floating ice shelf on one
function space. Configuration is fixed at construction and an IceShelf may be used from
several goroutines at once, every solve keeps its state on its own stack.
*/
type IceShelf struct {
	Space          *FEM2D.FunctionSpace
	Tolerance      float64
	MaxIterations  int
	StrainRateMin  float64
	ParallelDegree int
	BCs            BoundaryConditions
	solver         linsolve.Solver
	log            logrus.FieldLogger
	constraints    *constraints
}

type Option func(is *IceShelf)

func WithTolerance(tol float64) Option {
	return func(is *IceShelf) { is.Tolerance = tol }
}

func WithMaxIterations(n int) Option {
	return func(is *IceShelf) { is.MaxIterations = n }
}

func WithStrainRateMin(eps float64) Option {
	return func(is *IceShelf) { is.StrainRateMin = eps }
}

func WithLinearSolver(s linsolve.Solver) Option {
	return func(is *IceShelf) { is.solver = s }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(is *IceShelf) { is.log = log }
}

func WithBoundaryConditions(bcs BoundaryConditions) Option {
	return func(is *IceShelf) { is.BCs = bcs }
}

// WithParallelDegree sets the number of assembly goroutines, zero selects runtime.NumCPU
func WithParallelDegree(np int) Option {
	return func(is *IceShelf) { is.ParallelDegree = np }
}

func NewIceShelf(fs *FEM2D.FunctionSpace, opts ...Option) (is *IceShelf) {
	is = &IceShelf{
		Space:         fs,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		StrainRateMin: StrainRateMin,
		solver:        linsolve.Default(),
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(is)
	}
	switch {
	case fs == nil:
		panic("nil function space")
	case !(is.Tolerance > 0):
		panic(fmt.Errorf("tolerance must be positive, have %v", is.Tolerance))
	case is.MaxIterations < 1:
		panic(fmt.Errorf("max iterations must be at least 1, have %d", is.MaxIterations))
	case !(is.StrainRateMin > 0):
		panic(fmt.Errorf("strain rate threshold must be positive, have %v", is.StrainRateMin))
	}
	is.constraints = newConstraints(fs, is.BCs)
	is.log = is.log.WithFields(logrus.Fields{
		"model": "ice_shelf",
		"order": fs.Order,
	})
	if c := is.constraints; c.slanted > 0 {
		is.log.WithFields(logrus.Fields{
			"faces":     c.slanted,
			"tags":      c.slantedTags,
			"max_slant": c.maxSlant,
		}).Warn("side walls are not axis aligned, only the dominant normal velocity component is held")
	}
	return
}

func (is *IceShelf) partitions() *utils.PartitionMap {
	return utils.NewPartitionMap(is.ParallelDegree, is.Space.NumElements())
}

func (is *IceShelf) checkSpace(names []string, spaces ...*FEM2D.FunctionSpace) error {
	for i, fs := range spaces {
		if fs != is.Space {
			return fmt.Errorf("%w: %s", ErrInvalidInput, names[i])
		}
	}
	return nil
}

func (is *IceShelf) Print() {
	fmt.Printf("Ice shelf model, P%d, tolerance = %8.3e, max iterations = %d, strain rate min = %8.3e /a\n",
		is.Space.Order, is.Tolerance, is.MaxIterations, is.StrainRateMin)
	is.BCs.Print()
}
