package sat

import (
	"context"
	"fmt"
	"testing"

	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardinalityCase struct {
	name      string
	build     func(t *testing.T) *model.Model
	solutions int
}

// cardinalityCases only use boolean variables and unit coefficients so every solver can run them
var cardinalityCases = []cardinalityCase{
	{
		name: "Exactly one of three",
		build: func(t *testing.T) *model.Model {
			m := model.NewModel()
			vars := bools(t, m, "x", 3)
			require.NoError(t, m.Add(model.ExactlyOne(vars...)))
			return m
		},
		solutions: 3,
	},
	{
		name: "Conditional cardinality",
		build: func(t *testing.T) *model.Model {
			m := model.NewModel()
			vars := bools(t, m, "x", 3)
			require.NoError(t, m.Add(model.Conditional(vars[0].Lit(), model.AtLeast(model.Ones(vars[1], vars[2]), 2))))
			return m
		},
		solutions: 5,
	},
	{
		name: "Negated literals",
		build: func(t *testing.T) *model.Model {
			m := model.NewModel()
			vars := bools(t, m, "x", 2)
			require.NoError(t, m.Add(model.Xor(vars[0].Lit(), vars[1].Not())))
			return m
		},
		solutions: 2,
	},
	{
		name: "Unconstrained variable",
		build: func(t *testing.T) *model.Model {
			m := model.NewModel()
			vars := bools(t, m, "x", 2)
			require.NoError(t, m.Add(model.Fix(vars[0].Lit())))
			return m
		},
		solutions: 2,
	},
	{
		name: "Permutations",
		build: func(t *testing.T) *model.Model {
			m := model.NewModel()
			grid, err := m.Space().DeclareGrid("p", model.BoolDomain(), 3, 3)
			require.NoError(t, err)
			rows := make([][]*model.Variable, 3)
			for i := range 3 {
				rows[i] = []*model.Variable{grid.At(i, 0), grid.At(i, 1), grid.At(i, 2)}
				require.NoError(t, m.Add(model.ExactlyOne(rows[i]...)))
			}
			require.NoError(t, m.Add(model.AllDifferent(rows)...))
			return m
		},
		solutions: 6,
	},
}

func TestGophersat(t *testing.T) {
	adapter := NewGophersatSolver(Options{})
	t.Run("Satisfiable models", func(t *testing.T) {
		satisfiableExecution(t, adapter)
	})
	t.Run("Infeasible models", func(t *testing.T) {
		infeasibleExecution(t, adapter)
	})
	t.Run("Enumeration", func(t *testing.T) {
		enumerationExecution(t, adapter)
	})
	t.Run("Solution limit", func(t *testing.T) {
		limitExecution(t, NewGophersatSolver)
	})
}

func TestGini(t *testing.T) {
	adapter := NewGiniSolver(Options{})
	t.Run("Satisfiable models", func(t *testing.T) {
		satisfiableExecution(t, adapter)
	})
	t.Run("Infeasible models", func(t *testing.T) {
		infeasibleExecution(t, adapter)
	})
	t.Run("Enumeration", func(t *testing.T) {
		enumerationExecution(t, adapter)
	})
	t.Run("Solution limit", func(t *testing.T) {
		limitExecution(t, NewGiniSolver)
	})
}

func TestForeignHandle(t *testing.T) {
	//** Arrange
	m := cardinalityCases[0].build(t)
	giniHandle, err := NewGiniSolver(Options{}).Build(m)
	require.NoError(t, err)

	//** Act
	_, solveErr := NewGophersatSolver(Options{}).Solve(context.Background(), giniHandle)
	_, enumErr := NewGophersatSolver(Options{}).Enumerate(context.Background(), giniHandle, func(model.Solution) bool { return true })

	//** Assert
	assert.ErrorIs(t, solveErr, ErrForeignHandle)
	assert.ErrorIs(t, enumErr, ErrForeignHandle)
}

func TestSharedModel(t *testing.T) {
	m := cardinalityCases[4].build(t)

	first, err := NewGophersatSolver(Options{}).Build(m)
	require.NoError(t, err)
	second, err := NewGiniSolver(Options{}).Build(m)
	require.NoError(t, err)

	assert.Same(t, m, first.Model())
	assert.Same(t, m, second.Model())
	assert.Equal(t, model.Built, m.State())
	assert.ErrorIs(t, m.Add(model.Fix(m.Space().Variables()[0].Lit())), model.ErrModelBuilt)
}

func satisfiableExecution(t *testing.T, adapter Adapter) {
	for _, c := range cardinalityCases {
		t.Run(c.name, func(t *testing.T) {
			//** Arrange
			m := c.build(t)
			handle, err := adapter.Build(m)
			require.NoError(t, err)

			//** Act
			solution, err := adapter.Solve(context.Background(), handle)

			//** Assert
			require.NoError(t, err)
			assert.Equal(t, model.Optimal, solution.Status)
			assert.Empty(t, m.Violations(solution))
			assert.Equal(t, model.Solved, m.State())
		})
	}
}

func infeasibleExecution(t *testing.T, adapter Adapter) {
	//** Arrange
	m := model.NewModel()
	vars := bools(t, m, "x", 2)
	require.NoError(t, m.Add(
		model.ExactlyOne(vars...),
		model.All(vars[0].Lit(), vars[1].Lit()),
	))
	handle, err := adapter.Build(m)
	require.NoError(t, err)

	//** Act
	solution, solveErr := adapter.Solve(context.Background(), handle)
	count, enumErr := adapter.Enumerate(context.Background(), handle, func(model.Solution) bool { return true })

	//** Assert
	require.NoError(t, solveErr)
	require.NoError(t, enumErr)
	assert.Equal(t, model.Infeasible, solution.Status)
	assert.False(t, solution.Status.HasAssignment())
	assert.Zero(t, count)
}

func enumerationExecution(t *testing.T, adapter Adapter) {
	for _, c := range cardinalityCases {
		t.Run(c.name, func(t *testing.T) {
			//** Arrange
			m := c.build(t)
			handle, err := adapter.Build(m)
			require.NoError(t, err)

			//** Act
			set, err := Collect(context.Background(), adapter, handle)

			//** Assert
			require.NoError(t, err)
			assert.Equal(t, c.solutions, set.Len())
			seen := make(map[string]bool)
			for _, solution := range set.All() {
				assert.Equal(t, model.Feasible, solution.Status)
				assert.Empty(t, m.Violations(solution))
				key := fmt.Sprint(solution.Values())
				assert.False(t, seen[key], "solution %v delivered twice", key)
				seen[key] = true
			}
		})
	}
}

func limitExecution(t *testing.T, constructor func(Options) Adapter) {
	t.Run("Configured limit", func(t *testing.T) {
		adapter := constructor(Options{SolutionLimit: 2})
		handle, err := adapter.Build(cardinalityCases[4].build(t))
		require.NoError(t, err)

		count, err := adapter.Enumerate(context.Background(), handle, func(model.Solution) bool { return true })

		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("Callback stops", func(t *testing.T) {
		adapter := constructor(Options{})
		handle, err := adapter.Build(cardinalityCases[4].build(t))
		require.NoError(t, err)

		count, err := adapter.Enumerate(context.Background(), handle, func(model.Solution) bool { return false })

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func bools(t *testing.T, m *model.Model, prefix string, n int) []*model.Variable {
	t.Helper()
	vars := make([]*model.Variable, n)
	for i := range n {
		variable, err := m.Bool(model.NewKey(prefix, i))
		require.NoError(t, err)
		vars[i] = variable
	}
	return vars
}
