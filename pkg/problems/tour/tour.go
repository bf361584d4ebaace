package tour

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

// Input is a symmetric distance table; each pair needs to be given in one direction only
type Input struct {
	Cities    []string                      `mapstructure:"cities"`
	Start     string                        `mapstructure:"start"`
	Distances map[string]map[string]float64 `mapstructure:"distances"`
}

func (input Input) Distance(from, to string) (float64, bool) {
	if distance, ok := input.Distances[from][to]; ok {
		return distance, true
	}
	distance, ok := input.Distances[to][from]
	return distance, ok
}

type Leg struct {
	From     string
	To       string
	Distance float64
}

type Result struct {
	// Route starts and ends at the start city
	Route    []string
	Legs     []Leg
	Distance float64
}

type Instance struct {
	Model  *model.Model
	input  Input
	anchor int
	edges  map[[2]int]*model.Variable
}

func Build(input Input) (*Instance, error) {
	n := len(input.Cities)
	anchor := slices.Index(input.Cities, input.Start)
	if n < 2 {
		return nil, fmt.Errorf("a tour needs at least two cities but %d were given", n)
	} else if anchor < 0 {
		return nil, fmt.Errorf("start city %v is not among the cities", input.Start)
	}

	m := model.NewModel()
	inst := &Instance{Model: m, input: input, anchor: anchor, edges: make(map[[2]int]*model.Variable)}

	//** One boolean per leg, weighted by its distance
	for i, from := range input.Cities {
		for j, to := range input.Cities {
			if i == j {
				continue
			}
			distance, ok := input.Distance(from, to)
			if !ok {
				return nil, fmt.Errorf("missing distance between %v and %v", from, to)
			}
			edge, err := m.Bool(model.NewKey("leg", from, to))
			if err != nil {
				return nil, err
			}
			inst.edges[[2]int{i, j}] = edge
			if err := m.Objective().AddTerm(edge, distance); err != nil {
				return nil, err
			}
		}
	}

	//** Leave and enter every city once
	for i := range n {
		outgoing := make([]*model.Variable, 0, n-1)
		incoming := make([]*model.Variable, 0, n-1)
		for j := range n {
			if i != j {
				outgoing = append(outgoing, inst.edge(i, j))
				incoming = append(incoming, inst.edge(j, i))
			}
		}
		if err := m.Add(model.ExactlyOne(outgoing...), model.ExactlyOne(incoming...)); err != nil {
			return nil, err
		}
	}

	//** No sub-tour may avoid the start city
	if n > 2 {
		rank := make([]*model.Variable, n)
		for i, city := range input.Cities {
			if i == anchor {
				continue
			}
			variable, err := m.Int(model.NewKey("rank", city), 1, int64(n-1))
			if err != nil {
				return nil, err
			}
			rank[i] = variable
		}
		if err := m.Add(model.CycleElimination(n, anchor, rank, inst.edge)...); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

func (inst *Instance) edge(i, j int) *model.Variable {
	return inst.edges[[2]int{i, j}]
}

func (inst *Instance) Decode(solution model.Solution) (Result, error) {
	cities := inst.input.Cities
	result := Result{Route: []string{cities[inst.anchor]}, Legs: make([]Leg, 0, len(cities))}

	current := inst.anchor
	for range cities {
		next, ok := lo.Find(lo.Range(len(cities)), func(j int) bool {
			return j != current && solution.Bool(inst.edge(current, j))
		})
		if !ok {
			return Result{}, fmt.Errorf("route stops at %v", cities[current])
		}
		distance, _ := inst.input.Distance(cities[current], cities[next])
		result.Legs = append(result.Legs, Leg{From: cities[current], To: cities[next], Distance: distance})
		result.Route = append(result.Route, cities[next])
		result.Distance += distance
		current = next
	}
	if current != inst.anchor {
		return Result{}, fmt.Errorf("route does not return to %v", cities[inst.anchor])
	}
	return result, nil
}

// TotalDistance recomputes the length of a route from the distance table
func TotalDistance(input Input) decode.Aggregate[Result] {
	return func(result Result) float64 {
		total := 0.0
		for i := 1; i < len(result.Route); i++ {
			distance, _ := input.Distance(result.Route[i-1], result.Route[i])
			total += distance
		}
		return total
	}
}

// Solve finds the shortest round trip through every city
func Solve(ctx context.Context, adapter sat.Adapter, input Input, tolerance float64) (decode.Outcome[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), TotalDistance(input), tolerance)
}

// Verify checks the route is a round trip from the start city visiting every city once
func Verify(result Result, input Input) bool {
	route := result.Route
	if len(route) != len(input.Cities)+1 || route[0] != input.Start || route[len(route)-1] != input.Start {
		return false
	}
	visited := route[:len(route)-1]
	return len(lo.Uniq(visited)) == len(input.Cities) && lo.Every(input.Cities, visited)
}
