package supplychain

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/satmodel/internal/dataset"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

func load(t *testing.T) Input {
	t.Helper()
	input, err := dataset.Load[Input]("../../../testdata/supply.yaml")
	require.NoError(t, err)
	return input
}

func TestCheapestPlan(t *testing.T) {
	//** Arrange
	input := load(t)

	//** Act
	outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

	//** Assert
	require.NoError(t, err)
	require.True(t, outcome.Decoded)
	assert.Equal(t, model.Optimal, outcome.Status)
	assert.InDelta(t, 110, outcome.Objective, 1e-6)
	assert.True(t, Verify(outcome.Record, input))

	expected := Result{
		Orders: []Order{
			{Material: "wood", Factory: "F1", Supplier: "S1", Units: 4, Cost: 12},
			{Material: "wood", Factory: "F2", Supplier: "S1", Units: 4, Cost: 20},
			{Material: "steel", Factory: "F2", Supplier: "S2", Units: 2, Cost: 10},
			{Material: "wood", Factory: "F2", Supplier: "S2", Units: 6, Cost: 24},
		},
		Bills: []Bill{
			{Factory: "F1", Supplier: "S1", Amount: 12},
			{Factory: "F2", Supplier: "S1", Amount: 20},
			{Factory: "F2", Supplier: "S2", Amount: 34},
		},
		Production: []Production{
			{Product: "chair", Factory: "F1", Units: 2, Cost: 10},
			{Product: "chair", Factory: "F2", Units: 2, Cost: 8},
			{Product: "table", Factory: "F2", Units: 2, Cost: 16},
		},
		Deliveries: []Delivery{
			{Product: "chair", Factory: "F1", Customer: "C1", Units: 2, Cost: 4},
			{Product: "chair", Factory: "F2", Customer: "C2", Units: 2, Cost: 2},
			{Product: "table", Factory: "F2", Customer: "C1", Units: 1, Cost: 3},
			{Product: "table", Factory: "F2", Customer: "C2", Units: 1, Cost: 1},
		},
		Manufacturing: map[string]float64{"F1": 10, "F2": 24},
		Shipping:      map[string]float64{"C1": 7, "C2": 3},
		UnitCosts: []UnitCost{
			{Customer: "C1", Product: "chair", Factory: "F1", Cost: 13},
			{Customer: "C2", Product: "chair", Factory: "F2", Cost: 13.8},
			{Customer: "C1", Product: "table", Factory: "F2", Cost: 29.2},
			{Customer: "C2", Product: "table", Factory: "F2", Cost: 27.2},
		},
		Total: 110,
	}
	if diff := cmp.Diff(expected, outcome.Record, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("unexpected plan (-want +got):\n%s", diff)
	}
}

func TestInfeasiblePlans(t *testing.T) {
	cases := []struct {
		name   string
		modify func(input *Input)
	}{
		{
			name:   "Demand above capacity",
			modify: func(input *Input) { input.Products[0].Demand["C1"] = 8 },
		},
		{
			name:   "Short of wood",
			modify: func(input *Input) { input.Suppliers[1].Stock["wood"] = 0 },
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			//** Arrange
			input := load(t)
			c.modify(&input)

			//** Act
			outcome, err := Solve(context.Background(), sat.NewGophersatSolver(sat.Options{}), input, 1e-6)

			//** Assert
			require.NoError(t, err)
			assert.Equal(t, model.Infeasible, outcome.Status)
			assert.False(t, outcome.Decoded)
		})
	}
}

func TestIntegerModelNeedsPseudoBooleanSolver(t *testing.T) {
	_, err := Solve(context.Background(), sat.NewGiniSolver(sat.Options{}), load(t), 1e-6)

	assert.ErrorIs(t, err, sat.ErrUnsupported)
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name    string
		modify  func(input *Input)
		message string
	}{
		{
			name:    "Unstocked material",
			modify:  func(input *Input) { input.Products[0].Requirements["glue"] = 1 },
			message: "requires materials no supplier stocks [glue]",
		},
		{
			name:    "Unknown customer",
			modify:  func(input *Input) { input.Products[1].Demand["C9"] = 1 },
			message: "unknown customers [C9]",
		},
		{
			name:    "Missing delivery cost",
			modify:  func(input *Input) { delete(input.Delivery["F2"], "C2") },
			message: "no delivery cost from F2 to C2",
		},
		{
			name:    "Missing price",
			modify:  func(input *Input) { delete(input.Suppliers[0].Prices, "steel") },
			message: "supplier S1 has no price for steel",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			input := load(t)
			c.modify(&input)

			_, err := Build(input)

			assert.ErrorContains(t, err, c.message)
		})
	}
}

func TestVerify(t *testing.T) {
	input := load(t)
	plan := Result{
		Orders: []Order{
			{Material: "wood", Factory: "F2", Supplier: "S1", Units: 10},
			{Material: "wood", Factory: "F2", Supplier: "S2", Units: 4},
			{Material: "steel", Factory: "F2", Supplier: "S2", Units: 2},
		},
		Production: []Production{
			{Product: "chair", Factory: "F2", Units: 1},
			{Product: "chair", Factory: "F1", Units: 3},
			{Product: "table", Factory: "F2", Units: 2},
		},
		Deliveries: []Delivery{
			{Product: "chair", Factory: "F1", Customer: "C1", Units: 2},
			{Product: "chair", Factory: "F1", Customer: "C2", Units: 1},
			{Product: "chair", Factory: "F2", Customer: "C2", Units: 1},
			{Product: "table", Factory: "F2", Customer: "C1", Units: 1},
			{Product: "table", Factory: "F2", Customer: "C2", Units: 1},
		},
	}
	assert.False(t, Verify(plan, input), "F1 received no wood")

	plan.Orders[0].Factory = "F1"
	plan.Orders[0].Units = 6
	plan.Orders = append(plan.Orders, Order{Material: "wood", Factory: "F2", Supplier: "S1", Units: 4})
	assert.True(t, Verify(plan, input))
	assert.InDelta(t, 6*3+4*5+4*4+2*5+3*5+1*4+2*8+2*2+1*5+1*1+1*3+1*1, TotalCost(input)(plan), 1e-9)

	plan.Deliveries = plan.Deliveries[1:]
	assert.False(t, Verify(plan, input), "C1 is missing two chairs")
}

func TestDecodeRepeatable(t *testing.T) {
	//** Arrange
	prices := map[string]float64{"m1": 0.1, "m2": 0.2, "m3": 0.3, "m4": 0.7, "m5": 1.1, "m6": 1e9 + 0.3}
	stock := make(map[string]int64)
	requirements := make(map[string]int64)
	for material := range prices {
		stock[material] = 1
		requirements[material] = 1
	}
	input := Input{
		Factories: []string{"F1"},
		Customers: []string{"C1"},
		Suppliers: []Supplier{{Name: "S1", Stock: stock, Prices: prices, Shipping: map[string]float64{"F1": 0}}},
		Products: []Product{{
			Name:         "kit",
			Requirements: requirements,
			Capacity:     map[string]int64{"F1": 1},
			Cost:         map[string]float64{"F1": 0},
			Demand:       map[string]int64{"C1": 1},
		}},
		Delivery: map[string]map[string]float64{"F1": {"C1": 0}},
	}
	inst, err := Build(input)
	require.NoError(t, err)
	adapter := sat.NewGophersatSolver(sat.Options{})
	handle, err := adapter.Build(inst.Model)
	require.NoError(t, err)
	solution, err := adapter.Solve(context.Background(), handle)
	require.NoError(t, err)
	require.Equal(t, model.Optimal, solution.Status)

	//** Act
	first, err := inst.Decode(solution)
	require.NoError(t, err)

	//** Assert
	require.Len(t, first.UnitCosts, 1)
	for range 100 {
		again, err := inst.Decode(solution)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
