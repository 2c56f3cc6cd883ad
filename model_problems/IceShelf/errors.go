package IceShelf

import (
	"errors"
	"fmt"

	"github.com/notargets/goice/FEM2D"
)

var (
	// ErrInvalidInput marks fields that do not belong to the model's function space
	ErrInvalidInput   = errors.New("iceshelf: field is not defined on the model's function space")
	ErrNonConvergence = errors.New("iceshelf: newton iteration did not converge")
	ErrLinearSolve    = errors.New("iceshelf: linear solve failed")
)

// NonConvergenceError is returned when the iteration budget runs out
type NonConvergenceError struct {
	Iterations   int
	ResidualNorm float64
	InitialNorm  float64
	Velocity     *FEM2D.VectorField // last iterate
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations, residual norm %.6e (initial %.6e)",
		ErrNonConvergence, e.Iterations, e.ResidualNorm, e.InitialNorm)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }

// LinearSolveError wraps the linear solver's failure with the Newton step it occurred in.
// Iteration is -1 for adjoint solves.
type LinearSolveError struct {
	Iteration int
	Wrapped   error
}

func (e *LinearSolveError) Error() string {
	if e.Iteration < 0 {
		return fmt.Sprintf("%v in adjoint solve: %v", ErrLinearSolve, e.Wrapped)
	}
	return fmt.Sprintf("%v at newton iteration %d: %v", ErrLinearSolve, e.Iteration, e.Wrapped)
}

func (e *LinearSolveError) Unwrap() []error { return []error{ErrLinearSolve, e.Wrapped} }
