package sat

import (
	"context"
	"fmt"
	"slices"

	"github.com/crillab/gophersat/solver"
	log "github.com/golang/glog"

	"github.com/limaJavier/satmodel/pkg/model"
)

// gophersatSolver compiles models to pseudo-boolean constraints and minimises by linear search on the objective.
// gophersat cannot be interrupted: when the budget runs out the adapter returns at once but the solve in flight keeps
// running in its goroutine until it answers, and its result is dropped.
type gophersatSolver struct {
	options Options
}

func NewGophersatSolver(options Options) Adapter {
	return &gophersatSolver{options: options}
}

type gophersatHandle struct {
	model       *model.Model
	encoding    *encoding
	constraints []solver.PBConstr
}

func (h *gophersatHandle) Model() *model.Model { return h.model }

func (h *gophersatHandle) Stats() Stats {
	return Stats{Variables: h.encoding.nbVars, Constraints: len(h.encoding.constraints)}
}

func (s *gophersatSolver) Name() string { return "gophersat" }

func (s *gophersatSolver) Build(m *model.Model) (Handle, error) {
	if err := m.Build(); err != nil {
		return nil, err
	}

	enc, err := compile(m)
	if err != nil {
		return nil, err
	}

	constraints := make([]solver.PBConstr, 0, enc.nbVars+len(enc.constraints))
	// Mention every variable so that unconstrained ones still receive a value
	for id := 1; id <= enc.nbVars; id++ {
		constraints = append(constraints, solver.PBConstr{Lits: []int{id}, AtLeast: 0})
	}
	for _, constraint := range enc.constraints {
		// GtEq takes ownership of its slices
		lits := append([]int(nil), constraint.lits...)
		weights := append([]int(nil), constraint.weights...)
		constraints = append(constraints, solver.GtEq(lits, weights, constraint.atLeast))
	}

	log.V(1).Infof("gophersat: %d model variables compiled into %d pseudo-boolean variables and %d constraints", m.Space().Len(), enc.nbVars, len(enc.constraints))

	return &gophersatHandle{
		model:       m,
		encoding:    enc,
		constraints: constraints,
	}, nil
}

// problem parses a private copy of the constraints since the solver rearranges clause weights in place
func (h *gophersatHandle) problem() *solver.Problem {
	constraints := make([]solver.PBConstr, len(h.constraints))
	for i, constraint := range h.constraints {
		constraints[i] = solver.PBConstr{
			Lits:    slices.Clone(constraint.Lits),
			Weights: slices.Clone(constraint.Weights),
			AtLeast: constraint.AtLeast,
		}
	}
	return solver.ParsePBConstrs(constraints)
}

func (s *gophersatSolver) handle(handle Handle) (*gophersatHandle, error) {
	h, ok := handle.(*gophersatHandle)
	if !ok {
		return nil, fmt.Errorf("%w: expected a gophersat handle but received %T", ErrForeignHandle, handle)
	}
	return h, nil
}

func (s *gophersatSolver) Solve(ctx context.Context, handle Handle) (model.Solution, error) {
	h, err := s.handle(handle)
	if err != nil {
		return model.Solution{}, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	engine := solver.New(h.problem())
	status, err := search(ctx, engine)
	if err != nil {
		return model.NewSolution(model.Unknown, 0, nil), nil
	} else if status == solver.Unsat {
		return model.NewSolution(model.Infeasible, 0, nil), nil
	}

	best := engine.Model()
	objective := h.encoding.objective
	if objective == nil {
		return h.encoding.solution(model.Optimal, best), nil
	}

	//** Linear search on the objective: every model found must be strictly cheaper than the last one
	lowest := objective.offset
	iteration := 0
	for {
		cost := objective.cost(best)
		log.V(2).Infof("gophersat: iteration %d found cost %d", iteration, cost)
		if cost == lowest {
			return h.encoding.solution(model.Optimal, best), nil
		}

		lits, weights, total := make([]solver.Lit, len(objective.lits)), make([]int, len(objective.weights)), 0
		for i, lit := range objective.lits {
			lits[i] = pbLit(-lit)
			weights[i] = objective.weights[i]
			total += weights[i]
		}
		// Σ w·lit <= cost - offset - 1  <=>  Σ w·¬lit >= total - (cost - offset) + 1
		engine.AppendClause(solver.NewPBClause(lits, weights, total-int(cost-objective.offset)+1))

		status, err := search(ctx, engine)
		if err != nil {
			log.V(1).Infof("gophersat: budget exhausted, keeping cost %d", cost)
			return h.encoding.solution(model.Feasible, best), nil
		} else if status == solver.Unsat {
			return h.encoding.solution(model.Optimal, best), nil
		}
		best = engine.Model()
		iteration++
	}
}

func (s *gophersatSolver) Enumerate(ctx context.Context, handle Handle, onSolution func(model.Solution) bool) (int, error) {
	h, err := s.handle(handle)
	if err != nil {
		return 0, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	engine := solver.New(h.problem())
	count := 0
	for {
		status, err := search(ctx, engine)
		if err != nil {
			return count, ErrIncomplete
		} else if status != solver.Sat {
			return count, nil
		}

		assignment := engine.Model()
		count++
		if !onSolution(h.encoding.solution(model.Feasible, assignment)) || s.options.limitReached(count) {
			return count, nil
		}

		// Block the current assignment of every variable
		blocking := make([]solver.Lit, len(assignment))
		for i, value := range assignment {
			blocking[i] = solver.IntToVar(int32(i + 1)).SignedLit(value)
		}
		engine.AppendClause(solver.NewClause(blocking))
	}
}

// search runs the solver until it answers or the context is done; the solver must not be reused after a
// context error since its goroutine may still be running. No solve starts once the context is done.
func search(ctx context.Context, engine *solver.Solver) (solver.Status, error) {
	if err := ctx.Err(); err != nil {
		return solver.Indet, err
	}
	done := make(chan solver.Status, 1)
	go func() {
		done <- engine.Solve()
	}()

	select {
	case status := <-done:
		return status, nil
	case <-ctx.Done():
		return solver.Indet, ctx.Err()
	}
}

func pbLit(lit int) solver.Lit {
	if lit < 0 {
		return solver.IntToVar(int32(-lit)).SignedLit(true)
	}
	return solver.IntToVar(int32(lit)).Lit()
}
