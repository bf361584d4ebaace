package model

import "log"

func Linear(terms []Term, lower, upper int64) Clause {
	return Clause{
		Kind:  LinearClause,
		Terms: terms,
		Lower: lower,
		Upper: upper,
	}
}

func AtLeast(terms []Term, lower int64) Clause {
	return Linear(terms, lower, NoUpper)
}

func AtMost(terms []Term, upper int64) Clause {
	return Linear(terms, NoLower, upper)
}

func Equal(terms []Term, value int64) Clause {
	return Linear(terms, value, value)
}

// Ones returns a unit-coefficient term for every variable
func Ones(variables ...*Variable) []Term {
	terms := make([]Term, len(variables))
	for i, variable := range variables {
		terms[i] = Term{Var: variable, Coef: 1}
	}
	return terms
}

// ExactlyOne: Σ group = 1
func ExactlyOne(group ...*Variable) Clause {
	return Clause{
		Kind:  ExactlyOneClause,
		Terms: Ones(group...),
		Lower: 1,
		Upper: 1,
	}
}

// AtMostOne: Σ group <= 1
func AtMostOne(group ...*Variable) Clause {
	return AtMost(Ones(group...), 1)
}

// AtLeastOne holds when any of the literals holds
func AtLeastOne(literals ...Literal) Clause {
	terms, constant := LiteralSum(literals...)
	return AtLeast(terms, 1-constant)
}

// All holds when every literal holds
func All(literals ...Literal) Clause {
	terms, constant := LiteralSum(literals...)
	size := int64(len(literals))
	return Equal(terms, size-constant)
}

// Fix forces a single literal to hold
func Fix(literal Literal) Clause {
	return All(literal)
}

// Xor holds when exactly one of the two literals holds
func Xor(a, b Literal) Clause {
	terms, constant := LiteralSum(a, b)
	return Equal(terms, 1-constant)
}

// MutualExclusion: first + second <= 1
func MutualExclusion(first, second *Variable) Clause {
	return Clause{
		Kind:  AllDifferentClause,
		Terms: Ones(first, second),
		Lower: NoLower,
		Upper: 1,
	}
}

// AllDifferent takes a boolean assignment matrix whose rows are entities and columns are values and forbids
// two entities from taking the same value
func AllDifferent(rows [][]*Variable) []Clause {
	clauses := make([]Clause, 0)
	for i := range len(rows) - 1 {
		for j := i + 1; j < len(rows); j++ {
			for value := range min(len(rows[i]), len(rows[j])) {
				clauses = append(clauses, MutualExclusion(rows[i][value], rows[j][value]))
			}
		}
	}
	return clauses
}

// Conditional enforces body only while trigger holds; the body is left unconstrained otherwise
func Conditional(trigger Literal, body Clause) Clause {
	if body.Trigger != nil {
		log.Panicf("clause %v is already conditional", body)
	}
	trig := trigger
	body.Kind = ConditionalClause
	body.Trigger = &trig
	return body
}

// Implies: condition -> consequence
func Implies(condition, consequence Literal) Clause {
	return Conditional(condition, Fix(consequence))
}

// CycleElimination forbids closed circuits that avoid the anchor node. rank must hold a variable with domain
// [1, nodes-1] for every node except the anchor, and edge(i, j) the boolean selecting the arc i -> j.
//
// rank[i] - rank[j] + nodes·edge(i, j) <= nodes - 1 for every ordered pair of distinct non-anchor nodes.
func CycleElimination(nodes, anchor int, rank []*Variable, edge func(i, j int) *Variable) []Clause {
	clauses := make([]Clause, 0, (nodes-1)*(nodes-2))
	for i := range nodes {
		for j := range nodes {
			if i == j || i == anchor || j == anchor {
				continue
			}
			clauses = append(clauses, AtMost([]Term{
				{Var: rank[i], Coef: 1},
				{Var: rank[j], Coef: -1},
				{Var: edge(i, j), Coef: int64(nodes)},
			}, int64(nodes-1)))
		}
	}
	return clauses
}

// Interval is a half-open time span [Start, End)
type Interval struct {
	Start int64
	End   int64
}

// Slot is the single instant interval [t, t+1)
func Slot(t int64) Interval {
	return Interval{Start: t, End: t + 1}
}

// Active is the only containment rule used by resource-time constraints
func (iv Interval) Active(t int64) bool {
	return iv.Start <= t && t < iv.End
}

// Usage pairs an allocation variable with the interval during which it occupies the resource
type Usage struct {
	Var      *Variable
	Interval Interval
}

// ResourceTimeCapacity bounds, for every time instant, the number of active allocations of one resource
func ResourceTimeCapacity(usages []Usage, times []int64, capacity int64) []Clause {
	clauses := make([]Clause, 0, len(times))
	for _, t := range times {
		active := make([]*Variable, 0)
		for _, usage := range usages {
			if usage.Interval.Active(t) {
				active = append(active, usage.Var)
			}
		}
		if len(active) == 0 {
			continue
		}
		clause := AtMost(Ones(active...), capacity)
		clause.Label = "capacity@" + string(NewKey(t))
		clauses = append(clauses, clause)
	}
	return clauses
}
