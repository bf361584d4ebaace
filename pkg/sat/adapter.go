package sat

import (
	"context"
	"errors"
	"time"

	"github.com/limaJavier/satmodel/pkg/model"
)

var (
	ErrUnsupported   = errors.New("model cannot be expressed by this solver")
	ErrForeignHandle = errors.New("handle was built by a different solver")
	ErrIncomplete    = errors.New("cancelled before the search space was exhausted")
	ErrUnavailable   = errors.New("solver executable is not available")
)

// Adapter translates a model into a concrete solver and reports results back in model terms
type Adapter interface {
	Name() string
	// Build compiles the model and moves it out of the draft state
	Build(m *model.Model) (Handle, error)
	// Solve returns Infeasible, Optimal, Feasible (budget hit after a model was found) or Unknown
	Solve(ctx context.Context, handle Handle) (model.Solution, error)
	// Enumerate delivers distinct feasible assignments until the space is exhausted, onSolution returns false
	// or the solution limit is reached; it returns how many were delivered
	Enumerate(ctx context.Context, handle Handle, onSolution func(model.Solution) bool) (int, error)
}

type Handle interface {
	Model() *model.Model
	Stats() Stats
}

// Stats describes the compiled size of a model
type Stats struct {
	Variables   int
	Constraints int
}

type Options struct {
	TimeLimit     time.Duration
	SolutionLimit int
	// Executable overrides the binary run by solvers living out of process
	Executable string
}

func (o Options) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.TimeLimit > 0 {
		return context.WithTimeout(ctx, o.TimeLimit)
	}
	return context.WithCancel(ctx)
}

func (o Options) limitReached(count int) bool {
	return o.SolutionLimit > 0 && count >= o.SolutionLimit
}

// Collect enumerates every solution into a SolutionSet
func Collect(ctx context.Context, adapter Adapter, handle Handle) (*model.SolutionSet, error) {
	set := &model.SolutionSet{}
	_, err := adapter.Enumerate(ctx, handle, func(solution model.Solution) bool {
		set.Append(solution)
		return true
	})
	return set, err
}
