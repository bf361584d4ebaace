package airport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/satmodel/internal/dataset"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

func load(t *testing.T) Input {
	t.Helper()
	input, err := dataset.Load[Input]("../../../testdata/airport.yaml")
	require.NoError(t, err)
	return input
}

func TestShortestTaxiDistance(t *testing.T) {
	//** Arrange
	input := load(t)

	//** Act
	outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

	//** Assert
	require.NoError(t, err)
	require.True(t, outcome.Decoded)
	assert.Equal(t, model.Optimal, outcome.Status)
	assert.InDelta(t, 1630, outcome.Objective, 1e-6)
	assert.InDelta(t, outcome.Objective, outcome.Record.Distance, 1e-6)
	assert.True(t, Verify(outcome.Record, input))
	require.Len(t, outcome.Record.Allocations, 5)

	gates := map[string]int{"T1": 1, "T2": 2}
	for _, occupancy := range outcome.Record.Occupancy {
		assert.LessOrEqual(t, len(occupancy.Flights), gates[occupancy.Terminal], "slot %d at %v", occupancy.Time, occupancy.Terminal)
		assert.Less(t, occupancy.Time, int64(6))
	}
}

func TestAllocationModel(t *testing.T) {
	inst, err := Build(load(t))

	require.NoError(t, err)
	// 14 variables and 13 allocation clauses per flight; 12 runway and 10 terminal capacity clauses
	assert.Equal(t, 70, inst.Model.Space().Len())
	assert.Equal(t, 87, inst.Model.NumClauses())
}

func TestSmallAirports(t *testing.T) {
	taxi := map[string]map[string]float64{"R1": {"T1": 100, "T2": 320}, "R2": {"T1": 260, "T2": 150}}

	t.Run("Single flight", func(t *testing.T) {
		//** Arrange
		input := Input{
			Flights:   []Flight{{Name: "A", Arrival: 1, Departure: 2}},
			Runways:   []string{"R1", "R2"},
			Terminals: []Terminal{{Name: "T1", Gates: 1}, {Name: "T2", Gates: 2}},
			Taxi:      taxi,
		}

		//** Act
		outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

		//** Assert
		require.NoError(t, err)
		assert.InDelta(t, 200, outcome.Objective, 1e-6)
		assert.Equal(t, []Allocation{{Flight: "A", ArrivalRunway: "R1", Terminal: "T1", DepartureRunway: "R1", Taxi: 200}}, outcome.Record.Allocations)
		assert.Equal(t, []Occupancy{{Time: 1, Terminal: "T1", Flights: []string{"A"}}}, outcome.Record.Occupancy)
	})

	t.Run("Full terminal", func(t *testing.T) {
		input := Input{
			Flights:   []Flight{{Name: "A", Arrival: 1, Departure: 3}, {Name: "B", Arrival: 2, Departure: 4}},
			Runways:   []string{"R1"},
			Terminals: []Terminal{{Name: "T1", Gates: 1}, {Name: "T2", Gates: 1}},
			Taxi:      taxi,
		}

		outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

		require.NoError(t, err)
		assert.InDelta(t, 840, outcome.Objective, 1e-6)
		terminals := []string{outcome.Record.Allocations[0].Terminal, outcome.Record.Allocations[1].Terminal}
		assert.ElementsMatch(t, []string{"T1", "T2"}, terminals)
	})

	t.Run("Back to back at one gate", func(t *testing.T) {
		input := Input{
			Flights:   []Flight{{Name: "A", Arrival: 1, Departure: 2}, {Name: "B", Arrival: 2, Departure: 3}},
			Runways:   []string{"R1", "R2"},
			Terminals: []Terminal{{Name: "T1", Gates: 1}, {Name: "T2", Gates: 0}},
			Taxi:      taxi,
		}

		outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

		require.NoError(t, err)
		// A departs and B arrives in slot 2, so they need different runways but may share the gate
		assert.InDelta(t, 200+360, outcome.Objective, 1e-6)
		assert.Equal(t, "T1", outcome.Record.Allocations[0].Terminal)
		assert.Equal(t, "T1", outcome.Record.Allocations[1].Terminal)
	})
}

func TestInfeasibleAirports(t *testing.T) {
	cases := []struct {
		name   string
		modify func(input *Input)
	}{
		{
			name: "More simultaneous arrivals than runways",
			modify: func(input *Input) {
				input.Flights = append(input.Flights, Flight{Name: "EI106", Arrival: 1, Departure: 2})
			},
		},
		{
			name: "No gates",
			modify: func(input *Input) {
				input.Terminals = []Terminal{{Name: "T1", Gates: 0}, {Name: "T2", Gates: 0}}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			input := load(t)
			c.modify(&input)

			outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

			require.NoError(t, err)
			assert.Equal(t, model.Infeasible, outcome.Status)
		})
	}
}

func TestTaxiObjectiveNeedsPseudoBooleanSolver(t *testing.T) {
	_, err := Solve(context.Background(), sat.NewGiniSolver(sat.Options{}), load(t), 1e-6)

	assert.ErrorIs(t, err, sat.ErrUnsupported)
}

func TestBuildErrors(t *testing.T) {
	t.Run("Departure before arrival", func(t *testing.T) {
		input := load(t)
		input.Flights[0].Departure = 1

		_, err := Build(input)

		assert.ErrorContains(t, err, "flight EI101 departs at 1 before arriving at 1")
	})

	t.Run("Missing taxi distance", func(t *testing.T) {
		input := load(t)
		delete(input.Taxi["R2"], "T1")

		_, err := Build(input)

		assert.ErrorContains(t, err, "missing taxi distance between R2 and T1")
	})
}

func TestVerify(t *testing.T) {
	input := load(t)
	result := Result{Allocations: []Allocation{
		{Flight: "EI101", ArrivalRunway: "R1", Terminal: "T1", DepartureRunway: "R1"},
		{Flight: "EI102", ArrivalRunway: "R2", Terminal: "T2", DepartureRunway: "R2"},
		{Flight: "EI103", ArrivalRunway: "R2", Terminal: "T2", DepartureRunway: "R2"},
		{Flight: "EI104", ArrivalRunway: "R1", Terminal: "T2", DepartureRunway: "R2"},
		{Flight: "EI105", ArrivalRunway: "R2", Terminal: "T1", DepartureRunway: "R1"},
	}}
	assert.True(t, Verify(result, input))
	assert.InDelta(t, 200+300+300+470+360, TaxiDistance(input)(result), 1e-9)

	result.Allocations[2].ArrivalRunway = "R1"
	assert.False(t, Verify(result, input), "EI101 and EI103 both land on R1 in slot 1")

	result.Allocations[2].ArrivalRunway = "R2"
	result.Allocations[4].Terminal = "T2"
	assert.False(t, Verify(result, input), "T2 holds three flights in slot 4")
}

func TestDecodeRepeatable(t *testing.T) {
	//** Arrange
	inst, err := Build(load(t))
	require.NoError(t, err)
	adapter := sat.NewGophersatSolver(sat.Options{})
	handle, err := adapter.Build(inst.Model)
	require.NoError(t, err)
	solution, err := adapter.Solve(context.Background(), handle)
	require.NoError(t, err)
	require.True(t, solution.Status.HasAssignment())

	//** Act
	first, err := inst.Decode(solution)
	require.NoError(t, err)
	second, err := inst.Decode(solution)
	require.NoError(t, err)

	//** Assert
	assert.Equal(t, first, second)
}
