package sat

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-air/gini/z"
	log "github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/model"
)

const kissatExecutable = "kissat"

// kissatSolver feeds the CNF of a cardinality model to the kissat binary; it accepts the same models as gini
type kissatSolver struct {
	options Options
}

func NewKissatSolver(options Options) Adapter {
	return &kissatSolver{options: options}
}

type kissatHandle struct {
	*giniHandle
}

func (s *kissatSolver) Name() string { return "kissat" }

func (s *kissatSolver) Build(m *model.Model) (Handle, error) {
	h, err := buildCircuit(m, s.Name())
	if err != nil {
		return nil, err
	}
	return &kissatHandle{giniHandle: h}, nil
}

// cnf collects the clauses of a circuit in DIMACS numbering
type cnf struct {
	variables int
	clauses   [][]int
	current   []int
}

func (f *cnf) Add(m z.Lit) {
	if m == z.LitNull {
		f.clauses = append(f.clauses, f.current)
		f.current = nil
		return
	}
	f.current = append(f.current, m.Dimacs())
}

func (f *cnf) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", f.variables, len(f.clauses))
	for _, clause := range f.clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

func (h *kissatHandle) formula() *cnf {
	f := &cnf{variables: h.circuit.Len()}
	h.circuit.ToCnf(f)
	for _, root := range h.roots {
		f.Add(root)
		f.Add(z.LitNull)
	}
	return f
}

func (s *kissatSolver) handle(handle Handle) (*kissatHandle, error) {
	h, ok := handle.(*kissatHandle)
	if !ok {
		return nil, fmt.Errorf("%w: expected a kissat handle but received %T", ErrForeignHandle, handle)
	}
	return h, nil
}

func (s *kissatSolver) Solve(ctx context.Context, handle Handle) (model.Solution, error) {
	h, err := s.handle(handle)
	if err != nil {
		return model.Solution{}, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	result, assignment, err := s.run(ctx, h.formula())
	switch {
	case err != nil:
		return model.Solution{}, err
	case result == satisfiable:
		return h.decode(assignment, model.Optimal), nil
	case result == unsatisfiable:
		return model.NewSolution(model.Infeasible, 0, nil), nil
	default:
		return model.NewSolution(model.Unknown, 0, nil), nil
	}
}

func (s *kissatSolver) Enumerate(ctx context.Context, handle Handle, onSolution func(model.Solution) bool) (int, error) {
	h, err := s.handle(handle)
	if err != nil {
		return 0, err
	}
	defer h.model.MarkSolved()

	ctx, cancel := s.options.context(ctx)
	defer cancel()

	formula := h.formula()
	count := 0
	for {
		result, assignment, err := s.run(ctx, formula)
		if err != nil {
			return count, err
		}
		switch result {
		case unsatisfiable:
			return count, nil
		case satisfiable:
		default:
			return count, ErrIncomplete
		}

		count++
		if !onSolution(h.decode(assignment, model.Feasible)) || s.options.limitReached(count) {
			return count, nil
		}

		// Block the current assignment of every variable
		formula.clauses = append(formula.clauses, lo.Map(h.lits, func(lit z.Lit, _ int) int {
			if assignment[lit.Var()] {
				return lit.Not().Dimacs()
			}
			return lit.Dimacs()
		}))
	}
}

// run returns satisfiable, unsatisfiable or zero when the context ends first
func (s *kissatSolver) run(ctx context.Context, formula *cnf) (int, map[z.Var]bool, error) {
	path, err := kissatPath(s.options)
	if err != nil {
		return 0, nil, err
	}

	cmd := exec.CommandContext(ctx, path, "-q", "--relaxed")
	cmd.Stdin = strings.NewReader(formula.ToDIMACS())
	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	err = cmd.Run()
	if ctx.Err() != nil {
		log.V(1).Infof("kissat: stopped by %v", ctx.Err())
		return 0, nil, nil
	}
	// Exit-code of 10 stands for satisfiable and exit-code 20 stands for unsatisfiable
	switch cmd.ProcessState.ExitCode() {
	case 10:
		assignment, err := parseSolution(stdOut.String())
		return satisfiable, assignment, err
	case 20:
		return unsatisfiable, nil, nil
	default:
		return 0, nil, fmt.Errorf("an error occurred during kissat execution: %v: %v", err, stdErr.String())
	}
}

func kissatPath(options Options) (string, error) {
	path, err := exec.LookPath(lo.CoalesceOrEmpty(options.Executable, kissatExecutable))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return path, nil
}

// parseSolution reads the value lines of a DIMACS solver output
func parseSolution(output string) (map[z.Var]bool, error) {
	assignment := make(map[z.Var]bool)
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "v") {
			continue
		}
		for _, field := range strings.Fields(line[1:]) {
			literal, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("invalid literal in solver output: %w", err)
			}
			if literal != 0 {
				assignment[z.Dimacs2Lit(literal).Var()] = literal > 0
			}
		}
	}
	return assignment, nil
}

func (h *kissatHandle) decode(assignment map[z.Var]bool, status model.Status) model.Solution {
	values := lo.Map(h.lits, func(lit z.Lit, _ int) int64 {
		return lo.Ternary[int64](assignment[lit.Var()], 1, 0)
	})
	return model.NewSolution(status, h.model.Objective().Constant(), values)
}
