package sat

import (
	"math"
	"testing"

	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerEncoding(t *testing.T) {
	t.Run("Partial span", func(t *testing.T) {
		//** Arrange
		m := model.NewModel()
		x, err := m.Int("x", 3, 8)
		require.NoError(t, err)

		//** Act
		enc, err := compile(m)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, 3, enc.nbVars)
		assert.Equal(t, []int{1, 2, 3}, enc.bits[x.Index()])
		require.Len(t, enc.constraints, 1)

		for _, assignment := range assignments(enc.nbVars) {
			value := enc.values(assignment)[x.Index()]
			assert.Equal(t, value <= 8, feasible(enc, assignment), "value %d", value)
			assert.GreaterOrEqual(t, value, int64(3))
		}
	})

	t.Run("Full span", func(t *testing.T) {
		m := model.NewModel()
		y, err := m.Int("y", -2, 1)
		require.NoError(t, err)

		enc, err := compile(m)

		require.NoError(t, err)
		assert.Equal(t, 2, enc.nbVars)
		assert.Empty(t, enc.constraints)
		seen := make(map[int64]bool)
		for _, assignment := range assignments(enc.nbVars) {
			seen[enc.values(assignment)[y.Index()]] = true
		}
		assert.Equal(t, map[int64]bool{-2: true, -1: true, 0: true, 1: true}, seen)
	})

	t.Run("Single value", func(t *testing.T) {
		m := model.NewModel()
		z, err := m.Int("z", 4, 4)
		require.NoError(t, err)

		enc, err := compile(m)

		require.NoError(t, err)
		assert.Zero(t, enc.nbVars)
		assert.Empty(t, enc.bits[z.Index()])
		assert.Equal(t, int64(4), enc.values(nil)[z.Index()])
	})

	t.Run("Boolean", func(t *testing.T) {
		m := model.NewModel()
		b, err := m.Bool("b")
		require.NoError(t, err)

		enc, err := compile(m)

		require.NoError(t, err)
		assert.Equal(t, []int{1}, enc.bits[b.Index()])
		assert.Empty(t, enc.constraints)
	})
}

func TestConditionalEncoding(t *testing.T) {
	cases := []struct {
		name   string
		clause func(trigger, x *model.Variable) model.Clause
		expect func(trigger bool, x int64) bool
	}{
		{
			name: "Lower bound on positive trigger",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Lit(), model.AtLeast(model.Ones(x), 2))
			},
			expect: func(trigger bool, x int64) bool { return !trigger || x >= 2 },
		},
		{
			name: "Lower bound on negated trigger",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Not(), model.AtLeast(model.Ones(x), 2))
			},
			expect: func(trigger bool, x int64) bool { return trigger || x >= 2 },
		},
		{
			name: "Upper bound on positive trigger",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Lit(), model.AtMost(model.Ones(x), 1))
			},
			expect: func(trigger bool, x int64) bool { return !trigger || x <= 1 },
		},
		{
			name: "Upper bound on negated trigger",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Not(), model.AtMost(model.Ones(x), 1))
			},
			expect: func(trigger bool, x int64) bool { return trigger || x <= 1 },
		},
		{
			name: "Two sided with negative coefficient",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Lit(), model.Linear([]model.Term{{Var: x, Coef: -2}}, -4, -2))
			},
			expect: func(trigger bool, x int64) bool { return !trigger || (1 <= x && x <= 2) },
		},
		{
			name: "Trivial body",
			clause: func(trigger, x *model.Variable) model.Clause {
				return model.Conditional(trigger.Lit(), model.AtMost(model.Ones(x), 3))
			},
			expect: func(trigger bool, x int64) bool { return true },
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			//** Arrange
			m := model.NewModel()
			trigger, err := m.Bool("t")
			require.NoError(t, err)
			x, err := m.Int("x", 0, 3)
			require.NoError(t, err)
			require.NoError(t, m.Add(c.clause(trigger, x)))

			//** Act
			enc, err := compile(m)

			//** Assert
			require.NoError(t, err)
			for _, assignment := range assignments(enc.nbVars) {
				values := enc.values(assignment)
				tv, xv := values[trigger.Index()] == 1, values[x.Index()]
				assert.Equal(t, c.expect(tv, xv), feasible(enc, assignment), "t=%v x=%d", tv, xv)
			}
		})
	}
}

func TestObjectiveEncoding(t *testing.T) {
	t.Run("Decimal coefficients", func(t *testing.T) {
		//** Arrange
		m := model.NewModel()
		x, _ := m.Bool("x")
		y, _ := m.Bool("y")
		require.NoError(t, m.SetObjective(model.Minimize,
			model.ObjectiveTerm{Var: x, Coef: 0.5},
			model.ObjectiveTerm{Var: y, Coef: 1.25},
		))

		//** Act
		enc, err := compile(m)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, float64(100), enc.objective.scale)
		assert.Equal(t, []int{1, 2}, enc.objective.lits)
		assert.Equal(t, []int{50, 125}, enc.objective.weights)
		assert.InDelta(t, 1.75, enc.objective.value(enc.objective.cost([]bool{true, true})), 1e-9)
	})

	t.Run("Maximisation", func(t *testing.T) {
		m := model.NewModel()
		x, _ := m.Bool("x")
		require.NoError(t, m.SetObjective(model.Maximize, model.ObjectiveTerm{Var: x, Coef: 2}))

		enc, err := compile(m)

		require.NoError(t, err)
		assert.Equal(t, []int{-1}, enc.objective.lits)
		assert.Equal(t, []int{2}, enc.objective.weights)
		assert.Equal(t, int64(-2), enc.objective.offset)
		assert.InDelta(t, 2, enc.objective.value(enc.objective.cost([]bool{true})), 1e-9)
		assert.InDelta(t, 0, enc.objective.value(enc.objective.cost([]bool{false})), 1e-9)
	})

	t.Run("Integer variable with negative lower bound", func(t *testing.T) {
		m := model.NewModel()
		y, _ := m.Int("y", -2, 1)
		require.NoError(t, m.Objective().AddTerm(y, 1.5))
		require.NoError(t, m.Objective().AddConstant(3))

		enc, err := compile(m)

		require.NoError(t, err)
		for _, assignment := range assignments(enc.nbVars) {
			value := enc.values(assignment)[y.Index()]
			assert.InDelta(t, 1.5*float64(value)+3, enc.objective.value(enc.objective.cost(assignment)), 1e-9)
		}
	})

	t.Run("Too many decimal places", func(t *testing.T) {
		m := model.NewModel()
		x, _ := m.Bool("x")
		require.NoError(t, m.Objective().AddTerm(x, 1.0/3.0))

		_, err := compile(m)

		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestScaleExponent(t *testing.T) {
	exponent, ok := scaleExponent([]float64{1, 2.5, 0.125})
	assert.True(t, ok)
	assert.Equal(t, 3, exponent)

	exponent, ok = scaleExponent([]float64{4, -7})
	assert.True(t, ok)
	assert.Zero(t, exponent)

	_, ok = scaleExponent([]float64{math.Pi})
	assert.False(t, ok)

	cases := map[string]struct {
		coefs    []float64
		exponent int
	}{
		"Close to an integer":   {coefs: []float64{1.0000005}, exponent: 7},
		"Below one millionth":   {coefs: []float64{3e-7, 1e-7}, exponent: 7},
		"Large with a fraction": {coefs: []float64{1e9 + 0.3}, exponent: 1},
		"Negative fraction":     {coefs: []float64{-0.05, 2}, exponent: 2},
		"Nine decimal places":   {coefs: []float64{0.000000001}, exponent: 9},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			exponent, ok := scaleExponent(c.coefs)

			assert.True(t, ok)
			assert.Equal(t, c.exponent, exponent)
		})
	}

	_, ok = scaleExponent([]float64{1e-10})
	assert.False(t, ok)
}

func TestScaleCoefficient(t *testing.T) {
	cases := []struct {
		coef     float64
		exponent int
		weight   int64
	}{
		{coef: 1.0000005, exponent: 7, weight: 10000005},
		{coef: 3e-7, exponent: 7, weight: 3},
		{coef: 1e-7, exponent: 7, weight: 1},
		{coef: 1e9 + 0.3, exponent: 1, weight: 10000000003},
		{coef: -0.05, exponent: 2, weight: -5},
		{coef: 2, exponent: 2, weight: 200},
		{coef: 0.1, exponent: 3, weight: 100},
	}
	for _, c := range cases {
		weight, err := scaleCoefficient(c.coef, c.exponent)

		require.NoError(t, err)
		assert.Equal(t, c.weight, weight, "%v·10^%d", c.coef, c.exponent)
	}

	_, err := scaleCoefficient(0.125, 2)
	assert.Error(t, err)
	_, err = scaleCoefficient(math.NaN(), 0)
	assert.Error(t, err)
}

// assignments lists every assignment of n pseudo-boolean variables
func assignments(n int) [][]bool {
	result := make([][]bool, 0, 1<<n)
	for mask := range 1 << n {
		assignment := make([]bool, n)
		for i := range n {
			assignment[i] = mask&(1<<i) != 0
		}
		result = append(result, assignment)
	}
	return result
}

func feasible(enc *encoding, assignment []bool) bool {
	for _, constraint := range enc.constraints {
		sum := 0
		for i, lit := range constraint.lits {
			if litHolds(assignment, lit) {
				sum += constraint.weights[i]
			}
		}
		if sum < constraint.atLeast {
			return false
		}
	}
	return true
}
