package sat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	log "github.com/golang/glog"

	"github.com/limaJavier/satmodel/pkg/model"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// giniSolver handles cardinality models: boolean variables and unit coefficients only, no objective
type giniSolver struct {
	options Options
}

func NewGiniSolver(options Options) Adapter {
	return &giniSolver{options: options}
}

type giniHandle struct {
	model   *model.Model
	lits    []z.Lit
	circuit *logic.C
	roots   []z.Lit
}

func (h *giniHandle) Model() *model.Model { return h.model }

func (h *giniHandle) Stats() Stats {
	return Stats{Variables: h.circuit.Len(), Constraints: len(h.roots)}
}

func (s *giniSolver) Name() string { return "gini" }

func (s *giniSolver) Build(m *model.Model) (Handle, error) {
	return buildCircuit(m, s.Name())
}

// buildCircuit compiles a cardinality model into a gini circuit with one root per clause
func buildCircuit(m *model.Model, solver string) (*giniHandle, error) {
	if !m.Objective().IsEmpty() {
		return nil, fmt.Errorf("%w: %v does not optimise objectives", ErrUnsupported, solver)
	}
	for _, variable := range m.Space().Variables() {
		if !variable.IsBool() {
			return nil, fmt.Errorf("%w: integer variable %v", ErrUnsupported, variable)
		}
	}
	if err := m.Build(); err != nil {
		return nil, err
	}

	h := &giniHandle{
		model:   m,
		lits:    make([]z.Lit, m.Space().Len()),
		circuit: logic.NewCCap(m.Space().Len()),
	}
	for i := range h.lits {
		h.lits[i] = h.circuit.Lit()
	}

	for _, clause := range m.Clauses() {
		root, err := h.compile(clause)
		if err != nil {
			return nil, err
		}
		h.roots = append(h.roots, root)
	}

	log.V(1).Infof("%v: %d variables, %d constraint circuits", solver, len(h.lits), len(h.roots))
	return h, nil
}

func (h *giniHandle) compile(clause model.Clause) (z.Lit, error) {
	//** Merge repeated variables
	coefs := make(map[*model.Variable]int64)
	order := make([]*model.Variable, 0, len(clause.Terms))
	for _, term := range clause.Terms {
		if _, ok := coefs[term.Var]; !ok {
			order = append(order, term.Var)
		}
		coefs[term.Var] += term.Coef
	}

	//** Rewrite -x as ¬x - 1
	lower, upper := clause.Lower, clause.Upper
	lits := make([]z.Lit, 0, len(order))
	for _, variable := range order {
		switch coefs[variable] {
		case 0:
		case 1:
			lits = append(lits, h.lits[variable.Index()])
		case -1:
			lits = append(lits, h.lits[variable.Index()].Not())
			lower, upper = shift(lower, 1), shift(upper, 1)
		default:
			return z.LitNull, fmt.Errorf("%w: coefficient %d in %v", ErrUnsupported, coefs[variable], clause)
		}
	}

	body := h.cardinality(lits, lower, upper)
	if clause.Trigger == nil {
		return body, nil
	}
	trigger := h.lits[clause.Trigger.Var.Index()]
	if clause.Trigger.Negated {
		trigger = trigger.Not()
	}
	return h.circuit.Or(trigger.Not(), body), nil
}

func shift(bound, delta int64) int64 {
	if bound == model.NoLower || bound == model.NoUpper {
		return bound
	}
	return bound + delta
}

// cardinality returns a literal equivalent to lower <= Σ lits <= upper
func (h *giniHandle) cardinality(lits []z.Lit, lower, upper int64) z.Lit {
	n := int64(len(lits))
	if lower > upper || lower > n || upper < 0 {
		return h.circuit.F
	}
	needLower, needUpper := lower > 0, upper < n
	if !needLower && !needUpper {
		return h.circuit.T
	}

	sorter := h.circuit.CardSort(lits)
	switch {
	case needLower && needUpper:
		return h.circuit.And(sorter.Geq(int(lower)), sorter.Leq(int(upper)))
	case needLower:
		return sorter.Geq(int(lower))
	default:
		return sorter.Leq(int(upper))
	}
}

// instance creates a fresh solver holding every constraint as a unit
func (h *giniHandle) instance() *gini.Gini {
	g := gini.NewV(h.circuit.Len())
	h.circuit.ToCnf(g)
	for _, root := range h.roots {
		g.Add(root)
		g.Add(z.LitNull)
	}
	// Variables above the highest one in use are registered through clauses implying a spare literal
	spare := z.Var(h.circuit.Len() + 1).Pos()
	for _, lit := range h.lits {
		if lit.Var() > g.MaxVar() {
			g.Add(lit)
			g.Add(spare)
			g.Add(z.LitNull)
			g.Add(lit.Not())
			g.Add(spare)
			g.Add(z.LitNull)
		}
	}
	return g
}

func value(g *gini.Gini, lit z.Lit) bool {
	if lit.Var() > g.MaxVar() {
		return false
	}
	return g.Value(lit)
}

func (s *giniSolver) handle(handle Handle) (*giniHandle, error) {
	h, ok := handle.(*giniHandle)
	if !ok {
		return nil, fmt.Errorf("%w: expected a gini handle but received %T", ErrForeignHandle, handle)
	}
	return h, nil
}

func (s *giniSolver) Solve(ctx context.Context, handle Handle) (model.Solution, error) {
	h, err := s.handle(handle)
	if err != nil {
		return model.Solution{}, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	g := h.instance()
	switch solveWithin(ctx, g) {
	case satisfiable:
		return h.solution(g, model.Optimal), nil
	case unsatisfiable:
		return model.NewSolution(model.Infeasible, 0, nil), nil
	default:
		return model.NewSolution(model.Unknown, 0, nil), nil
	}
}

func (s *giniSolver) Enumerate(ctx context.Context, handle Handle, onSolution func(model.Solution) bool) (int, error) {
	h, err := s.handle(handle)
	if err != nil {
		return 0, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	g := h.instance()
	count := 0
	for {
		switch solveWithin(ctx, g) {
		case unsatisfiable:
			return count, nil
		case satisfiable:
		default:
			return count, ErrIncomplete
		}

		solution := h.solution(g, model.Feasible)
		count++
		if !onSolution(solution) || s.options.limitReached(count) {
			return count, nil
		}

		// Block the current assignment of every variable
		for _, lit := range h.lits {
			if value(g, lit) {
				g.Add(lit.Not())
			} else {
				g.Add(lit)
			}
		}
		g.Add(z.LitNull)
	}
}

func (h *giniHandle) solution(g *gini.Gini, status model.Status) model.Solution {
	values := make([]int64, len(h.lits))
	for i, lit := range h.lits {
		if value(g, lit) {
			values[i] = 1
		}
	}
	return model.NewSolution(status, h.model.Objective().Constant(), values)
}

func solveWithin(ctx context.Context, g *gini.Gini) int {
	deadline, ok := ctx.Deadline()
	if !ok {
		return g.Solve()
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	return g.GoSolve().Try(remaining)
}
