package airport

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

type Flight struct {
	Name string `mapstructure:"name"`
	// Arrival and Departure are time slots; the flight holds a gate over [Arrival, Departure)
	Arrival   int64 `mapstructure:"arrival"`
	Departure int64 `mapstructure:"departure"`
}

type Terminal struct {
	Name  string `mapstructure:"name"`
	Gates int64  `mapstructure:"gates"`
}

type Input struct {
	Flights   []Flight   `mapstructure:"flights"`
	Runways   []string   `mapstructure:"runways"`
	Terminals []Terminal `mapstructure:"terminals"`
	// Taxi maps runway and terminal to the taxi distance between them, in either direction
	Taxi map[string]map[string]float64 `mapstructure:"taxi"`
}

// Slots lists every arrival and departure time, sorted
func (input Input) Slots() []int64 {
	slots := lo.Uniq(lo.FlatMap(input.Flights, func(flight Flight, _ int) []int64 {
		return []int64{flight.Arrival, flight.Departure}
	}))
	slices.Sort(slots)
	return slots
}

type Allocation struct {
	Flight          string
	ArrivalRunway   string
	Terminal        string
	DepartureRunway string
	Taxi            float64
}

type Occupancy struct {
	Time     int64
	Terminal string
	Flights  []string
}

type Result struct {
	Allocations []Allocation
	// Occupancy lists the flights at every terminal for each slot in which the terminal is in use
	Occupancy []Occupancy
	Distance  float64
}

type flightVariables struct {
	arrival   []*model.Variable
	departure []*model.Variable
	terminal  []*model.Variable
	// inbound[r][t] taxis from runway r to terminal t, outbound[t][r] back out
	inbound  [][]*model.Variable
	outbound [][]*model.Variable
}

type Instance struct {
	Model   *model.Model
	input   Input
	flights []flightVariables
}

func Build(input Input) (*Instance, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	m := model.NewModel()
	inst := &Instance{Model: m, input: input, flights: make([]flightVariables, len(input.Flights))}
	for f, flight := range input.Flights {
		vars, err := declare(m, input, flight)
		if err != nil {
			return nil, err
		}
		inst.flights[f] = vars
		if err := m.Add(allocation(vars)...); err != nil {
			return nil, err
		}
	}

	//** Runways handle one movement per slot
	slots := input.Slots()
	for r := range input.Runways {
		usages := make([]model.Usage, 0, 2*len(input.Flights))
		for f, flight := range input.Flights {
			usages = append(usages,
				model.Usage{Var: inst.flights[f].arrival[r], Interval: model.Slot(flight.Arrival)},
				model.Usage{Var: inst.flights[f].departure[r], Interval: model.Slot(flight.Departure)},
			)
		}
		if err := m.Add(model.ResourceTimeCapacity(usages, slots, 1)...); err != nil {
			return nil, err
		}
	}

	//** Terminals hold at most as many flights as they have gates
	for t, terminal := range input.Terminals {
		usages := lo.Map(input.Flights, func(flight Flight, f int) model.Usage {
			return model.Usage{
				Var:      inst.flights[f].terminal[t],
				Interval: model.Interval{Start: flight.Arrival, End: flight.Departure},
			}
		})
		if err := m.Add(model.ResourceTimeCapacity(usages, slots, terminal.Gates)...); err != nil {
			return nil, err
		}
	}

	//** Taxi distance
	for f := range input.Flights {
		for r, runway := range input.Runways {
			for t, terminal := range input.Terminals {
				distance := input.Taxi[runway][terminal.Name]
				if err := m.Objective().AddTerm(inst.flights[f].inbound[r][t], distance); err != nil {
					return nil, err
				}
				if err := m.Objective().AddTerm(inst.flights[f].outbound[t][r], distance); err != nil {
					return nil, err
				}
			}
		}
	}

	return inst, nil
}

func validate(input Input) error {
	if len(input.Runways) == 0 || len(input.Terminals) == 0 {
		return fmt.Errorf("an airport needs at least one runway and one terminal")
	}
	for _, flight := range input.Flights {
		if flight.Departure <= flight.Arrival {
			return fmt.Errorf("flight %v departs at %d before arriving at %d", flight.Name, flight.Departure, flight.Arrival)
		}
	}
	for _, runway := range input.Runways {
		for _, terminal := range input.Terminals {
			if _, ok := input.Taxi[runway][terminal.Name]; !ok {
				return fmt.Errorf("missing taxi distance between %v and %v", runway, terminal.Name)
			}
		}
	}
	return nil
}

func declare(m *model.Model, input Input, flight Flight) (flightVariables, error) {
	nr, nt := len(input.Runways), len(input.Terminals)
	vars := flightVariables{
		arrival:   make([]*model.Variable, nr),
		departure: make([]*model.Variable, nr),
		terminal:  make([]*model.Variable, nt),
		inbound:   make([][]*model.Variable, nr),
		outbound:  make([][]*model.Variable, nt),
	}

	var err error
	for r, runway := range input.Runways {
		if vars.arrival[r], err = m.Bool(model.NewKey("arrive", flight.Name, runway)); err != nil {
			return vars, err
		}
		if vars.departure[r], err = m.Bool(model.NewKey("depart", flight.Name, runway)); err != nil {
			return vars, err
		}
	}
	for t, terminal := range input.Terminals {
		if vars.terminal[t], err = m.Bool(model.NewKey("terminal", flight.Name, terminal.Name)); err != nil {
			return vars, err
		}
	}
	for r, runway := range input.Runways {
		vars.inbound[r] = make([]*model.Variable, nt)
		for t, terminal := range input.Terminals {
			if vars.inbound[r][t], err = m.Bool(model.NewKey("taxi", flight.Name, runway, terminal.Name)); err != nil {
				return vars, err
			}
		}
	}
	for t, terminal := range input.Terminals {
		vars.outbound[t] = make([]*model.Variable, nr)
		for r, runway := range input.Runways {
			if vars.outbound[t][r], err = m.Bool(model.NewKey("taxi", flight.Name, terminal.Name, runway)); err != nil {
				return vars, err
			}
		}
	}
	return vars, nil
}

// allocation ties the taxi moves of one flight to its runways and terminal
func allocation(vars flightVariables) []model.Clause {
	clauses := []model.Clause{
		model.ExactlyOne(vars.arrival...),
		model.ExactlyOne(vars.departure...),
		model.ExactlyOne(vars.terminal...),
		model.ExactlyOne(lo.Flatten(vars.inbound)...),
		model.ExactlyOne(lo.Flatten(vars.outbound)...),
	}

	balance := func(selector *model.Variable, moves []*model.Variable) model.Clause {
		terms := lo.Map(moves, func(move *model.Variable, _ int) model.Term { return model.Term{Var: move, Coef: 1} })
		return model.Equal(append(terms, model.Term{Var: selector, Coef: -1}), 0)
	}
	for r := range vars.arrival {
		clauses = append(clauses,
			balance(vars.arrival[r], vars.inbound[r]),
			balance(vars.departure[r], lo.Map(vars.outbound, func(row []*model.Variable, _ int) *model.Variable { return row[r] })),
		)
	}
	for t := range vars.terminal {
		clauses = append(clauses,
			balance(vars.terminal[t], lo.Map(vars.inbound, func(row []*model.Variable, _ int) *model.Variable { return row[t] })),
			balance(vars.terminal[t], vars.outbound[t]),
		)
	}
	return clauses
}

func (inst *Instance) Decode(solution model.Solution) (Result, error) {
	input := inst.input
	result := Result{Allocations: make([]Allocation, 0, len(input.Flights)), Occupancy: make([]Occupancy, 0)}

	pick := func(vars []*model.Variable) (int, bool) {
		chosen := lo.Filter(lo.Range(len(vars)), func(i, _ int) bool { return solution.Bool(vars[i]) })
		return lo.FirstOr(chosen, -1), len(chosen) == 1
	}
	terminals := make([]int, len(input.Flights))
	for f, flight := range input.Flights {
		vars := inst.flights[f]
		arrival, ok1 := pick(vars.arrival)
		departure, ok2 := pick(vars.departure)
		terminal, ok3 := pick(vars.terminal)
		if !ok1 || !ok2 || !ok3 {
			return Result{}, fmt.Errorf("%w: flight %v has no single runway and terminal allocation", decode.ErrBrokenAssignment, flight.Name)
		}
		terminals[f] = terminal

		terminalName := input.Terminals[terminal].Name
		taxi := input.Taxi[input.Runways[arrival]][terminalName] + input.Taxi[input.Runways[departure]][terminalName]
		result.Allocations = append(result.Allocations, Allocation{
			Flight:          flight.Name,
			ArrivalRunway:   input.Runways[arrival],
			Terminal:        terminalName,
			DepartureRunway: input.Runways[departure],
			Taxi:            taxi,
		})
		result.Distance += taxi
	}

	for _, slot := range input.Slots() {
		for t, terminal := range input.Terminals {
			present := make([]string, 0)
			for f, flight := range input.Flights {
				if terminals[f] == t && (model.Interval{Start: flight.Arrival, End: flight.Departure}).Active(slot) {
					present = append(present, flight.Name)
				}
			}
			if len(present) > 0 {
				result.Occupancy = append(result.Occupancy, Occupancy{Time: slot, Terminal: terminal.Name, Flights: present})
			}
		}
	}
	return result, nil
}

// TaxiDistance recomputes the total taxi distance of an allocation from the distance table
func TaxiDistance(input Input) decode.Aggregate[Result] {
	return func(result Result) float64 {
		return lo.SumBy(result.Allocations, func(a Allocation) float64 {
			return input.Taxi[a.ArrivalRunway][a.Terminal] + input.Taxi[a.DepartureRunway][a.Terminal]
		})
	}
}

// Solve finds the allocation with the shortest total taxi distance
func Solve(ctx context.Context, adapter sat.Adapter, input Input, tolerance float64) (decode.Outcome[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), TaxiDistance(input), tolerance)
}

// Verify checks that every flight is allocated once and no runway or terminal is overbooked
func Verify(result Result, input Input) bool {
	if len(result.Allocations) != len(input.Flights) {
		return false
	}
	runwayUse := make(map[string]map[int64]int)
	gateUse := make(map[string]map[int64]int64)
	for _, allocation := range result.Allocations {
		flight, ok := lo.Find(input.Flights, func(flight Flight) bool { return flight.Name == allocation.Flight })
		if !ok {
			return false
		}
		terminal, ok := lo.Find(input.Terminals, func(terminal Terminal) bool { return terminal.Name == allocation.Terminal })
		if !ok || !slices.Contains(input.Runways, allocation.ArrivalRunway) || !slices.Contains(input.Runways, allocation.DepartureRunway) {
			return false
		}

		movements := []struct {
			runway string
			slot   int64
		}{{allocation.ArrivalRunway, flight.Arrival}, {allocation.DepartureRunway, flight.Departure}}
		for _, movement := range movements {
			if runwayUse[movement.runway] == nil {
				runwayUse[movement.runway] = make(map[int64]int)
			}
			runwayUse[movement.runway][movement.slot]++
			if runwayUse[movement.runway][movement.slot] > 1 {
				return false
			}
		}

		if gateUse[terminal.Name] == nil {
			gateUse[terminal.Name] = make(map[int64]int64)
		}
		for slot := flight.Arrival; slot < flight.Departure; slot++ {
			gateUse[terminal.Name][slot]++
			if gateUse[terminal.Name][slot] > terminal.Gates {
				return false
			}
		}
	}
	return true
}
