package sat

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strconv"
	"strings"

	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/samber/lo"
)

const maxScaleExponent = 9

// linearForm is Σ weights[id]·x_id + constant over pseudo-boolean variables numbered from 1
type linearForm struct {
	weights  map[int]int64
	constant int64
}

func newLinearForm() *linearForm {
	return &linearForm{weights: make(map[int]int64)}
}

func (f *linearForm) add(id int, weight int64) {
	f.weights[id] += weight
	if f.weights[id] == 0 {
		delete(f.weights, id)
	}
}

// bounds returns the smallest and largest attainable values of the variable part
func (f *linearForm) bounds() (minSum, maxSum int64) {
	for _, weight := range f.weights {
		if weight < 0 {
			minSum += weight
		} else {
			maxSum += weight
		}
	}
	return minSum, maxSum
}

func (f *linearForm) ids() []int {
	ids := make([]int, 0, len(f.weights))
	for id := range f.weights {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// pbConstraint states Σ weights·lits >= atLeast; weights may be negative
type pbConstraint struct {
	lits    []int
	weights []int
	atLeast int
	label   string
}

// pbObjective is a minimisation over strictly positive weights: cost = offset + Σ weights·[lits]
type pbObjective struct {
	lits    []int
	weights []int
	offset  int64
	scale   float64
	sign    float64
	base    float64
}

// value converts a cost back into the units and direction of the model objective
func (o *pbObjective) value(cost int64) float64 {
	return o.sign*float64(cost)/o.scale + o.base
}

// encoding is the pseudo-boolean rendition of a model. Integer variables use an offset binary encoding
// x = lower + Σ 2^j·b_j; conditional clauses use an exact big-M on the trigger literal.
type encoding struct {
	model       *model.Model
	bits        [][]int
	nbVars      int
	constraints []pbConstraint
	objective   *pbObjective
}

func compile(m *model.Model) (*encoding, error) {
	enc := &encoding{
		model: m,
		bits:  make([][]int, m.Space().Len()),
	}

	//** Allocate variable bits
	for _, variable := range m.Space().Variables() {
		domain := variable.Domain()
		span := uint64(domain.Upper - domain.Lower)
		width := bits.Len64(span)
		ids := make([]int, width)
		for j := range ids {
			enc.nbVars++
			ids[j] = enc.nbVars
		}
		enc.bits[variable.Index()] = ids

		// Values above the span are unreachable unless the span fills every bit
		if width > 0 && span != (uint64(1)<<width)-1 {
			form := newLinearForm()
			for j, id := range ids {
				form.add(id, int64(1)<<j)
			}
			enc.emitUpper(form, int64(span), fmt.Sprintf("domain %v", variable))
		}
	}

	//** Translate clauses
	for _, clause := range m.Clauses() {
		enc.compileClause(clause)
	}

	//** Translate objective
	objective := m.Objective()
	if !objective.IsEmpty() {
		pbObj, err := enc.compileObjective(objective)
		if err != nil {
			return nil, err
		}
		enc.objective = pbObj
	}

	return enc, nil
}

func (enc *encoding) expand(form *linearForm, variable *model.Variable, coef int64) {
	form.constant += coef * variable.Domain().Lower
	for j, id := range enc.bits[variable.Index()] {
		form.add(id, coef<<j)
	}
}

func (enc *encoding) compileClause(clause model.Clause) {
	form := newLinearForm()
	for _, term := range clause.Terms {
		enc.expand(form, term.Var, term.Coef)
	}
	constant := form.constant
	form.constant = 0
	minSum, maxSum := form.bounds()
	label := clause.String()

	var trigger int
	if clause.Trigger != nil {
		trigger = enc.bits[clause.Trigger.Var.Index()][0]
	}

	if clause.HasLower() {
		lower := clause.Lower - constant
		if lower > minSum {
			body := copyForm(form)
			if clause.Trigger != nil {
				// Relax by M whenever the trigger does not hold
				bigM := lower - minSum
				if clause.Trigger.Negated {
					body.add(trigger, bigM)
				} else {
					body.add(trigger, -bigM)
					lower -= bigM
				}
			}
			enc.emitLower(body, lower, label)
		}
	}

	if clause.HasUpper() {
		upper := clause.Upper - constant
		if upper < maxSum {
			body := copyForm(form)
			if clause.Trigger != nil {
				bigM := maxSum - upper
				if clause.Trigger.Negated {
					body.add(trigger, -bigM)
				} else {
					body.add(trigger, bigM)
					upper += bigM
				}
			}
			enc.emitUpper(body, upper, label)
		}
	}
}

func copyForm(form *linearForm) *linearForm {
	clone := newLinearForm()
	for id, weight := range form.weights {
		clone.weights[id] = weight
	}
	clone.constant = form.constant
	return clone
}

func (enc *encoding) emitLower(form *linearForm, lower int64, label string) {
	ids := form.ids()
	constraint := pbConstraint{
		lits:    ids,
		weights: make([]int, len(ids)),
		atLeast: int(lower),
		label:   label,
	}
	for i, id := range ids {
		constraint.weights[i] = int(form.weights[id])
	}
	enc.constraints = append(enc.constraints, constraint)
}

func (enc *encoding) emitUpper(form *linearForm, upper int64, label string) {
	negated := newLinearForm()
	for id, weight := range form.weights {
		negated.weights[id] = -weight
	}
	enc.emitLower(negated, -upper, label)
}

func (enc *encoding) compileObjective(objective *model.Objective) (*pbObjective, error) {
	terms := objective.Terms()

	//** Scale real coefficients to integers
	exponent, ok := scaleExponent(lo.Map(terms, func(term model.ObjectiveTerm, _ int) float64 { return term.Coef }))
	if !ok {
		return nil, fmt.Errorf("%w: objective coefficients need more than %d decimal places", ErrUnsupported, maxScaleExponent)
	}
	scale := math.Pow10(exponent)

	sign := 1.0
	if objective.Direction() == model.Maximize {
		sign = -1.0
	}

	form := newLinearForm()
	for _, term := range terms {
		weight, err := scaleCoefficient(term.Coef, exponent)
		if err != nil {
			return nil, fmt.Errorf("%w: coefficient %v of %v: %v", ErrUnsupported, term.Coef, term.Var, err)
		}
		enc.expand(form, term.Var, int64(sign)*weight)
	}

	//** Normalise to positive weights
	pbObj := &pbObjective{
		offset: form.constant,
		scale:  scale,
		sign:   sign,
		base:   objective.Constant(),
	}
	for _, id := range form.ids() {
		weight := form.weights[id]
		if weight < 0 {
			// w·x = w + |w|·¬x
			pbObj.lits = append(pbObj.lits, -id)
			pbObj.weights = append(pbObj.weights, int(-weight))
			pbObj.offset += weight
		} else {
			pbObj.lits = append(pbObj.lits, id)
			pbObj.weights = append(pbObj.weights, int(weight))
		}
	}
	return pbObj, nil
}

// decimals counts the fractional digits of the shortest decimal that parses back to coef
func decimals(coef float64) int {
	_, fraction, _ := strings.Cut(strconv.FormatFloat(coef, 'f', -1, 64), ".")
	return len(fraction)
}

// scaleExponent returns the smallest k such that every coefficient times 10^k is an exact integer
func scaleExponent(coefs []float64) (int, bool) {
	exponent := 0
	for _, coef := range coefs {
		exponent = max(exponent, decimals(coef))
	}
	return exponent, exponent <= maxScaleExponent
}

// scaleCoefficient returns coef·10^exponent computed on its decimal digits, without rounding
func scaleCoefficient(coef float64, exponent int) (int64, error) {
	whole, fraction, _ := strings.Cut(strconv.FormatFloat(coef, 'f', -1, 64), ".")
	if len(fraction) > exponent {
		return 0, fmt.Errorf("%d decimal places exceed scale 10^%d", len(fraction), exponent)
	}
	return strconv.ParseInt(whole+fraction+strings.Repeat("0", exponent-len(fraction)), 10, 64)
}

// cost evaluates the objective on a pseudo-boolean assignment indexed from 0
func (o *pbObjective) cost(assignment []bool) int64 {
	cost := o.offset
	for i, lit := range o.lits {
		if litHolds(assignment, lit) {
			cost += int64(o.weights[i])
		}
	}
	return cost
}

func litHolds(assignment []bool, lit int) bool {
	if lit < 0 {
		return !assignment[-lit-1]
	}
	return assignment[lit-1]
}

// values decodes model variable values from a pseudo-boolean assignment indexed from 0
func (enc *encoding) values(assignment []bool) []int64 {
	values := make([]int64, len(enc.bits))
	for _, variable := range enc.model.Space().Variables() {
		value := variable.Domain().Lower
		for j, id := range enc.bits[variable.Index()] {
			if assignment[id-1] {
				value += int64(1) << j
			}
		}
		values[variable.Index()] = value
	}
	return values
}

func (enc *encoding) solution(status model.Status, assignment []bool) model.Solution {
	values := enc.values(assignment)
	var objective float64
	if enc.objective != nil {
		objective = enc.objective.value(enc.objective.cost(assignment))
	} else {
		objective = enc.model.Objective().Constant()
	}
	return model.NewSolution(status, objective, values)
}
