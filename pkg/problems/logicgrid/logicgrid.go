package logicgrid

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

var ErrUnknownFact = errors.New("fact refers to an unknown entity, attribute or value")

type Row struct {
	Entity string
	// Values maps attribute names to the chosen value
	Values map[string]string
}

type Result struct {
	Rows []Row
}

func (r Result) Row(entity string) (Row, bool) {
	return lo.Find(r.Rows, func(row Row) bool { return row.Entity == entity })
}

// Instance is a compiled puzzle: one boolean grid entity × value per attribute
type Instance struct {
	Model *model.Model
	input Input
	grids []*model.Grid
}

func Build(input Input) (*Instance, error) {
	m := model.NewModel()
	inst := &Instance{Model: m, input: input, grids: make([]*model.Grid, len(input.Attributes))}

	//** Declare variables
	for i, attribute := range input.Attributes {
		grid, err := m.Space().DeclareGrid(model.NewKey(attribute.Name), model.BoolDomain(), len(input.Entities), len(attribute.Values))
		if err != nil {
			return nil, err
		}
		inst.grids[i] = grid
	}

	//** Every entity takes exactly one value of every attribute
	for i, attribute := range input.Attributes {
		rows := make([][]*model.Variable, len(input.Entities))
		for entity := range input.Entities {
			rows[entity] = make([]*model.Variable, len(attribute.Values))
			for value := range attribute.Values {
				rows[entity][value] = inst.grids[i].At(entity, value)
			}
			if err := m.Add(model.ExactlyOne(rows[entity]...)); err != nil {
				return nil, err
			}
		}
		if attribute.Unique {
			if err := m.Add(model.AllDifferent(rows)...); err != nil {
				return nil, err
			}
		}
	}

	//** Clues
	for _, clue := range input.Clues {
		clauses, err := inst.compile(clue)
		if err != nil {
			return nil, err
		}
		if err := m.Add(clauses...); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

func (inst *Instance) literal(fact Fact) (model.Literal, error) {
	entity := slices.Index(inst.input.Entities, fact.Entity)
	index, attribute, ok := inst.input.attribute(fact.Attribute)
	value := slices.Index(attribute.Values, fact.Value)
	if entity < 0 || !ok || value < 0 {
		return model.Literal{}, fmt.Errorf("%w: %v", ErrUnknownFact, fact)
	}
	literal := inst.grids[index].At(entity, value).Lit()
	if fact.Not {
		literal = literal.Not()
	}
	return literal, nil
}

func (inst *Instance) compile(clue Clue) ([]model.Clause, error) {
	literals := make([]model.Literal, len(clue.Facts))
	for i, fact := range clue.Facts {
		literal, err := inst.literal(fact)
		if err != nil {
			return nil, err
		}
		literals[i] = literal
	}

	arity := func(n int) error {
		if len(literals) != n {
			return fmt.Errorf("%v clue takes %d facts but received %d", clue.Kind, n, len(literals))
		}
		return nil
	}

	switch clue.Kind {
	case ClueFact:
		return lo.Map(literals, func(literal model.Literal, _ int) model.Clause { return model.Fix(literal) }), nil
	case ClueXor:
		if err := arity(2); err != nil {
			return nil, err
		}
		return []model.Clause{model.Xor(literals[0], literals[1])}, nil
	case ClueImplies:
		if err := arity(2); err != nil {
			return nil, err
		}
		return []model.Clause{model.Implies(literals[0], literals[1])}, nil
	case ClueImpliesAny:
		if len(literals) < 2 {
			return nil, fmt.Errorf("%v clue needs a condition and at least one consequence", clue.Kind)
		}
		return []model.Clause{model.Conditional(literals[0], model.AtLeastOne(literals[1:]...))}, nil
	case ClueAny:
		return []model.Clause{model.AtLeastOne(literals...)}, nil
	default:
		return nil, fmt.Errorf("unknown clue kind %q", clue.Kind)
	}
}

func (inst *Instance) Decode(solution model.Solution) (Result, error) {
	result := Result{Rows: make([]Row, len(inst.input.Entities))}
	for entity, name := range inst.input.Entities {
		row := Row{Entity: name, Values: make(map[string]string, len(inst.input.Attributes))}
		for i, attribute := range inst.input.Attributes {
			chosen := lo.Filter(attribute.Values, func(_ string, value int) bool {
				return solution.Bool(inst.grids[i].At(entity, value))
			})
			if len(chosen) != 1 {
				return Result{}, fmt.Errorf("%v has %d values for %v", name, len(chosen), attribute.Name)
			}
			row.Values[attribute.Name] = chosen[0]
		}
		result.Rows[entity] = row
	}
	return result, nil
}

// Solve finds one arrangement satisfying every clue
func Solve(ctx context.Context, adapter sat.Adapter, input Input) (decode.Outcome[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), nil, 0)
}

// Enumerate lists every arrangement satisfying every clue
func Enumerate(ctx context.Context, adapter sat.Adapter, input Input) ([]decode.Record[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return nil, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return nil, err
	}
	return decode.Collect(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode))
}

// Verify checks a result against the domain rules without looking at the model
func Verify(result Result, input Input) bool {
	if len(result.Rows) != len(input.Entities) {
		return false
	}
	for _, entity := range input.Entities {
		row, ok := result.Row(entity)
		if !ok {
			return false
		}
		for _, attribute := range input.Attributes {
			if !slices.Contains(attribute.Values, row.Values[attribute.Name]) {
				return false
			}
		}
	}

	//** Unique attributes must pair entities and values one to one
	for _, attribute := range input.Attributes {
		if !attribute.Unique {
			continue
		}
		if !bijective(result, attribute) {
			return false
		}
	}

	//** Clues
	for _, clue := range input.Clues {
		holds := lo.Map(clue.Facts, func(fact Fact, _ int) bool { return input.holds(result, fact) })
		var satisfied bool
		switch clue.Kind {
		case ClueFact:
			satisfied = !slices.Contains(holds, false)
		case ClueXor:
			satisfied = len(holds) == 2 && holds[0] != holds[1]
		case ClueImplies:
			satisfied = len(holds) == 2 && (!holds[0] || holds[1])
		case ClueImpliesAny:
			satisfied = len(holds) > 1 && (!holds[0] || slices.Contains(holds[1:], true))
		case ClueAny:
			satisfied = slices.Contains(holds, true)
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func bijective(result Result, attribute Attribute) bool {
	if len(result.Rows) != len(attribute.Values) {
		return false
	}
	rows := lo.Map(result.Rows, func(row Row, _ int) any { return row })
	values := lo.Map(attribute.Values, func(value string, _ int) any { return value })
	graph, err := bipartitegraph.NewBipartiteGraph(rows, values, func(rowAny, valueAny any) (bool, error) {
		return rowAny.(Row).Values[attribute.Name] == valueAny.(string), nil
	})
	if err != nil {
		return false
	}
	return len(graph.LargestMatching()) == len(values)
}
