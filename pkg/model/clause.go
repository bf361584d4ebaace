package model

import (
	"fmt"
	"math"
	"strings"
)

type ClauseKind int

const (
	LinearClause ClauseKind = iota
	ExactlyOneClause
	AllDifferentClause
	ConditionalClause
)

func (k ClauseKind) String() string {
	switch k {
	case LinearClause:
		return "linear"
	case ExactlyOneClause:
		return "exactly-one"
	case AllDifferentClause:
		return "all-different-pair"
	case ConditionalClause:
		return "conditional"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Unbounded sides of a clause
const (
	NoLower int64 = math.MinInt64
	NoUpper int64 = math.MaxInt64
)

type Term struct {
	Var  *Variable
	Coef int64
}

// Clause states Lower <= Σ Coef·Var <= Upper. A conditional clause only holds when Trigger is true.
type Clause struct {
	Kind    ClauseKind
	Terms   []Term
	Lower   int64
	Upper   int64
	Trigger *Literal
	Label   string
}

func (c Clause) HasLower() bool { return c.Lower != NoLower }
func (c Clause) HasUpper() bool { return c.Upper != NoUpper }

// Sum evaluates the linear part of the clause under the given assignment
func (c Clause) Sum(value func(*Variable) int64) int64 {
	var sum int64
	for _, term := range c.Terms {
		sum += term.Coef * value(term.Var)
	}
	return sum
}

// Satisfied reports whether the clause holds under the given assignment
func (c Clause) Satisfied(value func(*Variable) int64) bool {
	if c.Trigger != nil && !c.Trigger.Holds(value(c.Trigger.Var)) {
		return true
	}
	sum := c.Sum(value)
	return sum >= c.Lower && sum <= c.Upper
}

// Variables returns every variable referenced by the clause, trigger included
func (c Clause) Variables() []*Variable {
	variables := make([]*Variable, 0, len(c.Terms)+1)
	for _, term := range c.Terms {
		variables = append(variables, term.Var)
	}
	if c.Trigger != nil {
		variables = append(variables, c.Trigger.Var)
	}
	return variables
}

func (c Clause) String() string {
	var builder strings.Builder
	if c.Trigger != nil {
		fmt.Fprintf(&builder, "%v -> ", *c.Trigger)
	}
	if c.HasLower() {
		fmt.Fprintf(&builder, "%d <= ", c.Lower)
	}
	for i, term := range c.Terms {
		if i > 0 {
			builder.WriteString(" + ")
		}
		fmt.Fprintf(&builder, "%d*%v", term.Coef, term.Var)
	}
	if len(c.Terms) == 0 {
		builder.WriteString("0")
	}
	if c.HasUpper() {
		fmt.Fprintf(&builder, " <= %d", c.Upper)
	}
	return builder.String()
}

// LiteralSum linearises Σ literals as Σ terms + constant, rewriting ¬x as 1 - x
func LiteralSum(literals ...Literal) (terms []Term, constant int64) {
	terms = make([]Term, 0, len(literals))
	for _, literal := range literals {
		if literal.Negated {
			terms = append(terms, Term{Var: literal.Var, Coef: -1})
			constant++
		} else {
			terms = append(terms, Term{Var: literal.Var, Coef: 1})
		}
	}
	return terms, constant
}
