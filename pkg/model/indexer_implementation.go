package model

import "log"

// Mixed-radix layout where the first coordinate varies fastest
type indexerImplementation struct {
	dimensions []int
}

func (indexer *indexerImplementation) Index(coordinates ...int) int {
	if len(coordinates) != len(indexer.dimensions) {
		log.Panicf("expected %d coordinates but received %d", len(indexer.dimensions), len(coordinates))
	}

	index, stride := 0, 1
	for i, coordinate := range coordinates {
		if coordinate < 0 || coordinate >= indexer.dimensions[i] {
			log.Panicf("coordinate %d out of range [0, %d) at dimension %d", coordinate, indexer.dimensions[i], i)
		}
		index += coordinate * stride
		stride *= indexer.dimensions[i]
	}
	return index
}

func (indexer *indexerImplementation) Coordinates(index int) []int {
	coordinates := make([]int, len(indexer.dimensions))
	for i, dimension := range indexer.dimensions {
		coordinates[i] = index % dimension
		index = index / dimension
	}
	return coordinates
}

func (indexer *indexerImplementation) Size() int {
	size := 1
	for _, dimension := range indexer.dimensions {
		size *= dimension
	}
	return size
}
