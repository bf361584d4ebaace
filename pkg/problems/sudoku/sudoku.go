package sudoku

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

// Input lists the grid rows; digits are givens and '.' or '0' mark empty cells
type Input struct {
	Rows []string `mapstructure:"rows"`
}

type Grid [][]int

func (g Grid) String() string {
	lines := lo.Map(g, func(row []int, _ int) string {
		return strings.Join(lo.Map(row, func(digit int, _ int) string { return fmt.Sprint(digit) }), " ")
	})
	return strings.Join(lines, "\n")
}

type Instance struct {
	Model *model.Model
	size  int
	// cells is indexed by row, column and digit - 1
	cells *model.Grid
}

// Givens parses the input rows into a grid holding zero for empty cells
func (input Input) Givens() (Grid, error) {
	size := len(input.Rows)
	box := int(math.Sqrt(float64(size)))
	if size == 0 || box*box != size {
		return nil, fmt.Errorf("grid size %d is not a perfect square", size)
	}

	grid := make(Grid, size)
	for r, line := range input.Rows {
		cells := []rune(strings.ReplaceAll(line, " ", ""))
		if len(cells) != size {
			return nil, fmt.Errorf("row %d has %d cells but %d are expected", r+1, len(cells), size)
		}
		grid[r] = make([]int, size)
		for c, cell := range cells {
			switch {
			case cell == '.' || cell == '0':
			case cell >= '1' && cell <= '9' && int(cell-'0') <= size:
				grid[r][c] = int(cell - '0')
			default:
				return nil, fmt.Errorf("row %d column %d holds %q", r+1, c+1, cell)
			}
		}
	}
	return grid, nil
}

func Build(input Input) (*Instance, error) {
	givens, err := input.Givens()
	if err != nil {
		return nil, err
	}
	size := len(givens)
	box := int(math.Sqrt(float64(size)))

	m := model.NewModel()
	cells, err := m.Space().DeclareGrid("cell", model.BoolDomain(), size, size, size)
	if err != nil {
		return nil, err
	}
	inst := &Instance{Model: m, size: size, cells: cells}

	//** Every cell holds exactly one digit
	for r := range size {
		for c := range size {
			if err := m.Add(model.ExactlyOne(inst.digits(r, c)...)); err != nil {
				return nil, err
			}
		}
	}

	//** Rows, columns and boxes hold different digits
	for _, unit := range units(size, box) {
		rows := lo.Map(unit, func(cell [2]int, _ int) []*model.Variable { return inst.digits(cell[0], cell[1]) })
		if err := m.Add(model.AllDifferent(rows)...); err != nil {
			return nil, err
		}
	}

	//** Givens
	for r, row := range givens {
		for c, digit := range row {
			if digit == 0 {
				continue
			}
			if err := m.Add(model.Fix(cells.At(r, c, digit-1).Lit())); err != nil {
				return nil, err
			}
		}
	}

	return inst, nil
}

func (inst *Instance) digits(r, c int) []*model.Variable {
	digits := make([]*model.Variable, inst.size)
	for d := range inst.size {
		digits[d] = inst.cells.At(r, c, d)
	}
	return digits
}

func (inst *Instance) Decode(solution model.Solution) (Grid, error) {
	grid := make(Grid, inst.size)
	for r := range inst.size {
		grid[r] = make([]int, inst.size)
		for c := range inst.size {
			for d, variable := range inst.digits(r, c) {
				if solution.Bool(variable) {
					grid[r][c] = d + 1
				}
			}
			if grid[r][c] == 0 {
				return nil, fmt.Errorf("cell %d,%d holds no digit", r+1, c+1)
			}
		}
	}
	return grid, nil
}

func Solve(ctx context.Context, adapter sat.Adapter, input Input) (decode.Outcome[Grid], error) {
	inst, err := Build(input)
	if err != nil {
		return decode.Outcome[Grid]{}, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return decode.Outcome[Grid]{}, err
	}
	return decode.Optimize(ctx, adapter, handle, decode.DecoderFunc[Grid](inst.Decode), nil, 0)
}

// Enumerate lists the completions of the grid; a proper puzzle has exactly one
func Enumerate(ctx context.Context, adapter sat.Adapter, input Input) ([]decode.Record[Grid], error) {
	inst, err := Build(input)
	if err != nil {
		return nil, err
	}
	handle, err := adapter.Build(inst.Model)
	if err != nil {
		return nil, err
	}
	return decode.Collect(ctx, adapter, handle, decode.DecoderFunc[Grid](inst.Decode))
}

// Verify checks that grid is a valid completion of the input givens
func Verify(grid Grid, input Input) bool {
	givens, err := input.Givens()
	if err != nil || len(grid) != len(givens) {
		return false
	}
	size := len(givens)
	box := int(math.Sqrt(float64(size)))

	distinct := func(cells [][2]int) bool {
		digits := lo.Map(cells, func(cell [2]int, _ int) int { return grid[cell[0]][cell[1]] })
		return len(lo.Uniq(digits)) == size && lo.EveryBy(digits, func(d int) bool { return d >= 1 && d <= size })
	}

	for r := range size {
		if len(grid[r]) != size {
			return false
		}
		for c := range size {
			if givens[r][c] != 0 && givens[r][c] != grid[r][c] {
				return false
			}
		}
	}
	return lo.EveryBy(units(size, box), distinct)
}

// units lists the cells of every row, column and box
func units(size, box int) [][][2]int {
	all := make([][][2]int, 0, 3*size)
	for i := range size {
		row, column, square := make([][2]int, size), make([][2]int, size), make([][2]int, size)
		for j := range size {
			row[j] = [2]int{i, j}
			column[j] = [2]int{j, i}
			square[j] = [2]int{(i/box)*box + j/box, (i%box)*box + j%box}
		}
		all = append(all, row, column, square)
	}
	return all
}
