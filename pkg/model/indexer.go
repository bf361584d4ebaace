package model

// indexer interface is design to give a unique index to a combination of grid coordinates and vice versa
type indexer interface {
	// Returns a unique index to a combination of coordinates
	Index(coordinates ...int) int
	// Returns a combination of coordinates from a unique index
	Coordinates(index int) []int
	// Returns the number of distinct indices
	Size() int
}

func newIndexer(dimensions ...int) indexer {
	dims := make([]int, len(dimensions))
	copy(dims, dimensions)
	return &indexerImplementation{
		dimensions: dims,
	}
}
