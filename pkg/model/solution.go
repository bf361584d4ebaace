package model

type Status int

const (
	Unknown Status = iota
	Infeasible
	Feasible
	Optimal
)

func (s Status) String() string {
	switch s {
	case Infeasible:
		return "infeasible"
	case Feasible:
		return "feasible"
	case Optimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// HasAssignment reports whether a solution with this status carries variable values
func (s Status) HasAssignment() bool {
	return s == Feasible || s == Optimal
}

// Solution is the raw assignment reported by a solver adapter, indexed by variable
type Solution struct {
	Status    Status
	Objective float64
	values    []int64
}

func NewSolution(status Status, objective float64, values []int64) Solution {
	return Solution{
		Status:    status,
		Objective: objective,
		values:    values,
	}
}

func (s Solution) Value(variable *Variable) int64 {
	if variable.Index() >= len(s.values) {
		return 0
	}
	return s.values[variable.Index()]
}

func (s Solution) Bool(variable *Variable) bool {
	return s.Value(variable) != 0
}

func (s Solution) Holds(literal Literal) bool {
	return literal.Holds(s.Value(literal.Var))
}

func (s Solution) Values() []int64 {
	values := make([]int64, len(s.values))
	copy(values, s.values)
	return values
}

// SolutionSet is an append-only, discovery-ordered sequence of solutions
type SolutionSet struct {
	solutions []Solution
}

func (set *SolutionSet) Append(solution Solution) {
	set.solutions = append(set.solutions, solution)
}

func (set *SolutionSet) Len() int {
	return len(set.solutions)
}

func (set *SolutionSet) At(i int) Solution {
	return set.solutions[i]
}

func (set *SolutionSet) All() []Solution {
	solutions := make([]Solution, len(set.solutions))
	copy(solutions, set.solutions)
	return solutions
}
