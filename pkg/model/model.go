package model

import "fmt"

type State int

const (
	Draft State = iota
	Built
	Solved
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case Solved:
		return "solved"
	default:
		return "draft"
	}
}

// Model gathers the variables, clauses and optional objective of a single problem instance
type Model struct {
	space     *Space
	clauses   []Clause
	objective *Objective
	state     State
}

func NewModel() *Model {
	m := &Model{
		space:   NewSpace(),
		clauses: make([]Clause, 0),
	}
	m.objective = newObjective(m)
	return m
}

func (m *Model) Space() *Space { return m.space }
func (m *Model) State() State  { return m.state }

func (m *Model) Bool(key Key) (*Variable, error) {
	return m.space.Bool(key)
}

func (m *Model) Int(key Key, lower, upper int64) (*Variable, error) {
	return m.space.Int(key, lower, upper)
}

// Add validates and stores clauses; nothing is stored when any of them is rejected
func (m *Model) Add(clauses ...Clause) error {
	if m.state != Draft {
		return constructionError("add clause", KindModelBuilt, "", ErrModelBuilt)
	}
	for _, clause := range clauses {
		if err := m.validate(clause); err != nil {
			return err
		}
	}
	m.clauses = append(m.clauses, clauses...)
	return nil
}

func (m *Model) validate(clause Clause) error {
	for _, variable := range clause.Variables() {
		if !m.space.Owns(variable) {
			return constructionError("add clause", KindUndeclared, keyOf(variable), ErrUndeclared)
		}
	}
	if clause.Trigger != nil && !clause.Trigger.Var.IsBool() {
		return constructionError("add clause", KindNonBooleanLiteral, clause.Trigger.Var.Key(), ErrNonBoolean)
	}
	if clause.Lower > clause.Upper {
		return constructionError("add clause", KindInconsistentBound, "", fmt.Errorf("%w: %v", ErrInconsistentBound, clause))
	}
	return nil
}

func (m *Model) Clauses() []Clause {
	clauses := make([]Clause, len(m.clauses))
	copy(clauses, m.clauses)
	return clauses
}

func (m *Model) NumClauses() int {
	return len(m.clauses)
}

// Objective returns the model objective; it stays empty until a term is added and rejects edits once the model
// is built
func (m *Model) Objective() *Objective {
	return m.objective
}

// SetObjective replaces the objective terms with the given ones
func (m *Model) SetObjective(direction Direction, terms ...ObjectiveTerm) error {
	if m.state != Draft {
		return constructionError("set objective", KindModelBuilt, "", ErrModelBuilt)
	}
	objective := newObjective(m)
	objective.direction = direction
	for _, term := range terms {
		if err := objective.AddTerm(term.Var, term.Coef); err != nil {
			return err
		}
	}
	m.objective = objective
	return nil
}

// Build freezes the model; later declarations or clauses are rejected
func (m *Model) Build() error {
	if m.state != Draft {
		return nil
	}
	for variable := range m.objective.coefficients {
		if !m.space.Owns(variable) {
			return constructionError("build", KindUndeclared, keyOf(variable), ErrUndeclared)
		}
	}
	m.space.freeze()
	m.state = Built
	return nil
}

// keyOf names a variable in errors; nil variables have no key
func keyOf(variable *Variable) Key {
	if variable == nil {
		return ""
	}
	return variable.Key()
}

func (m *Model) MarkSolved() {
	if m.state == Built {
		m.state = Solved
	}
}

// Violations returns every clause the assignment breaks
func (m *Model) Violations(solution Solution) []Clause {
	violations := make([]Clause, 0)
	for _, clause := range m.clauses {
		if !clause.Satisfied(solution.Value) {
			violations = append(violations, clause)
		}
	}
	for _, variable := range m.space.variables {
		if !variable.Domain().Contains(solution.Value(variable)) {
			violations = append(violations, Linear(Ones(variable), variable.Domain().Lower, variable.Domain().Upper))
		}
	}
	return violations
}
