package model

import (
	"fmt"

	"github.com/samber/lo"
)

// Grid is a dense family of variables addressed by coordinates
type Grid struct {
	prefix    Key
	indexer   indexer
	variables []*Variable
	offset    int
}

// DeclareGrid declares one variable per coordinate combination, keyed as prefix/c0/c1/...
func (s *Space) DeclareGrid(prefix Key, domain Domain, dimensions ...int) (*Grid, error) {
	if len(dimensions) == 0 || lo.SomeBy(dimensions, func(dimension int) bool { return dimension <= 0 }) {
		return nil, constructionError("declare grid", KindEmptyDomain, prefix, fmt.Errorf("invalid dimensions %v", dimensions))
	}

	grid := &Grid{
		prefix:  prefix,
		indexer: newIndexer(dimensions...),
		offset:  s.Len(),
	}
	grid.variables = make([]*Variable, grid.indexer.Size())

	for index := range grid.variables {
		coordinates := grid.indexer.Coordinates(index)
		parts := append([]any{prefix}, lo.ToAnySlice(coordinates)...)
		variable, err := s.Declare(NewKey(parts...), domain)
		if err != nil {
			return nil, err
		}
		grid.variables[index] = variable
	}
	return grid, nil
}

func (g *Grid) At(coordinates ...int) *Variable {
	return g.variables[g.indexer.Index(coordinates...)]
}

// Coordinates returns the coordinates of a grid variable; ok is false when the variable is not part of the grid
func (g *Grid) Coordinates(variable *Variable) (coordinates []int, ok bool) {
	index := variable.Index() - g.offset
	if index < 0 || index >= len(g.variables) || g.variables[index] != variable {
		return nil, false
	}
	return g.indexer.Coordinates(index), true
}

func (g *Grid) Variables() []*Variable {
	variables := make([]*Variable, len(g.variables))
	copy(variables, g.variables)
	return variables
}

func (g *Grid) Prefix() Key {
	return g.prefix
}
