package staffing

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

type Project struct {
	Name  string `mapstructure:"name"`
	Value int64  `mapstructure:"value"`
	// Jobs maps a month to the job the project needs done in it
	Jobs      map[string]string `mapstructure:"jobs"`
	DependsOn []string          `mapstructure:"depends_on"`
}

type Contractor struct {
	Name string `mapstructure:"name"`
	// Quotes maps every job the contractor can do to its price
	Quotes map[string]int64 `mapstructure:"quotes"`
}

type Input struct {
	Months      []string     `mapstructure:"months"`
	Projects    []Project    `mapstructure:"projects"`
	Contractors []Contractor `mapstructure:"contractors"`
	MinProfit   int64        `mapstructure:"min_profit"`
}

type Assignment struct {
	Project    string
	Month      string
	Job        string
	Contractor string
	Quote      int64
}

type Result struct {
	Projects    []string
	Assignments []Assignment
	Value       int64
	Cost        int64
	Profit      int64
}

type slot struct {
	project    int
	month      string
	contractor int
}

type Instance struct {
	Model    *model.Model
	input    Input
	taken    []*model.Variable
	assigned map[slot]*model.Variable
	// slots lists the keys of assigned in declaration order
	slots []slot
}

func Build(input Input) (*Instance, error) {
	m := model.NewModel()
	inst := &Instance{
		Model:    m,
		input:    input,
		taken:    make([]*model.Variable, len(input.Projects)),
		assigned: make(map[slot]*model.Variable),
	}

	//** Declare variables
	for p, project := range input.Projects {
		taken, err := m.Bool(model.NewKey("taken", project.Name))
		if err != nil {
			return nil, err
		}
		inst.taken[p] = taken
	}
	for p, project := range input.Projects {
		for _, month := range input.Months {
			job, ok := project.Jobs[month]
			if !ok {
				continue
			}
			for c, contractor := range input.Contractors {
				if _, ok := contractor.Quotes[job]; !ok {
					continue
				}
				variable, err := m.Bool(model.NewKey("assigned", contractor.Name, project.Name, month))
				if err != nil {
					return nil, err
				}
				key := slot{project: p, month: month, contractor: c}
				inst.assigned[key] = variable
				inst.slots = append(inst.slots, key)
			}
		}
	}

	//** A contractor works on at most one project per month
	for c := range input.Contractors {
		for _, month := range input.Months {
			busy := inst.filter(func(s slot) bool { return s.contractor == c && s.month == month })
			if len(busy) > 1 {
				if err := m.Add(model.AtMostOne(busy...)); err != nil {
					return nil, err
				}
			}
		}
	}

	//** Taken projects get exactly one contractor per job; the others get none
	for p, project := range input.Projects {
		for _, month := range input.Months {
			if _, ok := project.Jobs[month]; !ok {
				continue
			}
			candidates := inst.filter(func(s slot) bool { return s.project == p && s.month == month })
			if err := m.Add(model.Conditional(inst.taken[p].Lit(), model.ExactlyOne(candidates...))); err != nil {
				return nil, err
			}
		}
		if unknown := lo.Without(lo.Keys(project.Jobs), input.Months...); len(unknown) > 0 {
			return nil, fmt.Errorf("project %v has jobs in unknown months %v", project.Name, unknown)
		}

		staff := inst.filter(func(s slot) bool { return s.project == p })
		if len(staff) > 0 {
			if err := m.Add(model.Conditional(inst.taken[p].Not(), model.AtMost(model.Ones(staff...), 0))); err != nil {
				return nil, err
			}
		}
	}

	//** Dependencies
	for p, project := range input.Projects {
		for _, name := range project.DependsOn {
			q := slices.IndexFunc(input.Projects, func(other Project) bool { return other.Name == name })
			if q < 0 {
				return nil, fmt.Errorf("project %v depends on unknown project %v", project.Name, name)
			}
			if err := m.Add(model.Implies(inst.taken[p].Lit(), inst.taken[q].Lit())); err != nil {
				return nil, err
			}
		}
	}

	//** Profit margin
	if err := m.Add(model.AtLeast(inst.profitTerms(), input.MinProfit)); err != nil {
		return nil, err
	}

	return inst, nil
}

func (inst *Instance) filter(predicate func(slot) bool) []*model.Variable {
	return lo.Map(lo.Filter(inst.slots, func(s slot, _ int) bool { return predicate(s) }), func(s slot, _ int) *model.Variable {
		return inst.assigned[s]
	})
}

func (inst *Instance) quote(s slot) int64 {
	job := inst.input.Projects[s.project].Jobs[s.month]
	return inst.input.Contractors[s.contractor].Quotes[job]
}

// profitTerms is Σ value·taken - Σ quote·assigned
func (inst *Instance) profitTerms() []model.Term {
	terms := make([]model.Term, 0, len(inst.taken)+len(inst.slots))
	for p, project := range inst.input.Projects {
		terms = append(terms, model.Term{Var: inst.taken[p], Coef: project.Value})
	}
	for _, s := range inst.slots {
		terms = append(terms, model.Term{Var: inst.assigned[s], Coef: -inst.quote(s)})
	}
	return terms
}

// MaximizeProfit turns the model into an optimisation of the profit margin
func (inst *Instance) MaximizeProfit() error {
	terms := lo.Map(inst.profitTerms(), func(term model.Term, _ int) model.ObjectiveTerm {
		return model.ObjectiveTerm{Var: term.Var, Coef: float64(term.Coef)}
	})
	return inst.Model.SetObjective(model.Maximize, terms...)
}

func (inst *Instance) Decode(solution model.Solution) (Result, error) {
	result := Result{Projects: make([]string, 0), Assignments: make([]Assignment, 0)}
	for p, project := range inst.input.Projects {
		if solution.Bool(inst.taken[p]) {
			result.Projects = append(result.Projects, project.Name)
			result.Value += project.Value
		}
	}
	for _, s := range inst.slots {
		if !solution.Bool(inst.assigned[s]) {
			continue
		}
		project := inst.input.Projects[s.project]
		result.Assignments = append(result.Assignments, Assignment{
			Project:    project.Name,
			Month:      s.month,
			Job:        project.Jobs[s.month],
			Contractor: inst.input.Contractors[s.contractor].Name,
			Quote:      inst.quote(s),
		})
		result.Cost += inst.quote(s)
	}
	result.Profit = result.Value - result.Cost
	return result, nil
}

// ProfitMargin recomputes the margin of a plan from the input values and quotes
func ProfitMargin(input Input) decode.Aggregate[Result] {
	return func(result Result) float64 {
		var profit int64
		for _, name := range result.Projects {
			project, _ := lo.Find(input.Projects, func(project Project) bool { return project.Name == name })
			profit += project.Value
		}
		for _, assignment := range result.Assignments {
			contractor, _ := lo.Find(input.Contractors, func(contractor Contractor) bool { return contractor.Name == assignment.Contractor })
			profit -= contractor.Quotes[assignment.Job]
		}
		return float64(profit)
	}
}

// Solve finds the plan with the highest profit margin
func Solve(ctx context.Context, adapter sat.Adapter, input Input, tolerance float64) (decode.Outcome[Result], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	if err := inst.MaximizeProfit(); err != nil {
		return decode.Outcome[Result]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Result]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), ProfitMargin(input), tolerance)
}

// Enumerate streams every plan meeting the minimum profit margin
func Enumerate(ctx context.Context, adapter sat.Adapter, input Input, onPlan func(decode.Record[Result]) bool) (int, error) {
	inst, err := Build(input)
	if err != nil {
		return 0, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return 0, err
	}
	return decode.Enumerate(ctx, adapter, handle, decode.DecoderFunc[Result](inst.Decode), onPlan)
}

// Verify checks a plan against staffing rules, dependencies and the minimum margin
func Verify(result Result, input Input) bool {
	taken := lo.SliceToMap(result.Projects, func(name string) (string, bool) { return name, true })
	busy := make(map[[2]string]bool)
	staffed := make(map[[2]string]int)
	for _, assignment := range result.Assignments {
		if !taken[assignment.Project] {
			return false
		}
		contractor, ok := lo.Find(input.Contractors, func(contractor Contractor) bool { return contractor.Name == assignment.Contractor })
		if !ok {
			return false
		}
		if _, ok := contractor.Quotes[assignment.Job]; !ok {
			return false
		}
		if busy[[2]string{assignment.Contractor, assignment.Month}] {
			return false
		}
		busy[[2]string{assignment.Contractor, assignment.Month}] = true
		staffed[[2]string{assignment.Project, assignment.Month}]++
	}

	for _, project := range input.Projects {
		if !taken[project.Name] {
			continue
		}
		for month, job := range project.Jobs {
			if staffed[[2]string{project.Name, month}] != 1 {
				return false
			}
			assignment, _ := lo.Find(result.Assignments, func(a Assignment) bool { return a.Project == project.Name && a.Month == month })
			if assignment.Job != job {
				return false
			}
		}
		if !lo.Every(result.Projects, project.DependsOn) {
			return false
		}
	}

	return int64(ProfitMargin(input)(result)) >= input.MinProfit
}
