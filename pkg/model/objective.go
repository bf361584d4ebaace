package model

import "slices"

type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Objective is a weighted sum of decision variables plus a constant.
// Coefficients are kept at full precision; rounding is left to presentation.
type Objective struct {
	owner        *Model
	direction    Direction
	coefficients map[*Variable]float64
	constant     float64
}

func newObjective(owner *Model) *Objective {
	return &Objective{owner: owner, coefficients: make(map[*Variable]float64)}
}

func (o *Objective) editable(op string) error {
	if o.owner.state != Draft {
		return constructionError(op, KindModelBuilt, "", ErrModelBuilt)
	}
	return nil
}

// AddTerm accumulates coef into the coefficient of variable, which must belong to the owning model
func (o *Objective) AddTerm(variable *Variable, coef float64) error {
	if err := o.editable("add objective term"); err != nil {
		return err
	}
	if !o.owner.space.Owns(variable) {
		return constructionError("add objective term", KindUndeclared, keyOf(variable), ErrUndeclared)
	}
	o.coefficients[variable] += coef
	return nil
}

func (o *Objective) AddConstant(constant float64) error {
	if err := o.editable("add objective constant"); err != nil {
		return err
	}
	o.constant += constant
	return nil
}

func (o *Objective) SetDirection(direction Direction) error {
	if err := o.editable("set objective direction"); err != nil {
		return err
	}
	o.direction = direction
	return nil
}

func (o *Objective) Direction() Direction { return o.direction }
func (o *Objective) Constant() float64    { return o.constant }

func (o *Objective) Coefficient(variable *Variable) float64 {
	return o.coefficients[variable]
}

// ObjectiveTerm is a single weighted variable of an objective
type ObjectiveTerm struct {
	Var  *Variable
	Coef float64
}

// Terms returns the non-zero terms ordered by variable index
func (o *Objective) Terms() []ObjectiveTerm {
	terms := make([]ObjectiveTerm, 0, len(o.coefficients))
	for variable, coef := range o.coefficients {
		if coef != 0 {
			terms = append(terms, ObjectiveTerm{Var: variable, Coef: coef})
		}
	}
	slices.SortFunc(terms, func(a, b ObjectiveTerm) int { return a.Var.Index() - b.Var.Index() })
	return terms
}

func (o *Objective) IsEmpty() bool {
	return len(o.Terms()) == 0
}

// Evaluate recomputes the objective value from an assignment
func (o *Objective) Evaluate(value func(*Variable) int64) float64 {
	total := o.constant
	for _, term := range o.Terms() {
		total += term.Coef * float64(value(term.Var))
	}
	return total
}
