package sat

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

var solvers = map[string]func(Options) Adapter{
	"gophersat": NewGophersatSolver,
	"gini":      NewGiniSolver,
	"kissat":    NewKissatSolver,
}

// Names lists the registered solvers in alphabetical order
func Names() []string {
	names := lo.Keys(solvers)
	slices.Sort(names)
	return names
}

func New(name string, options Options) (Adapter, error) {
	constructor, ok := solvers[name]
	if !ok {
		return nil, fmt.Errorf("%v is not a valid solver, allowed values are %v", name, Names())
	}
	return constructor(options), nil
}

// Available reports whether the named solver can run on this machine; out of process solvers need their binary
func Available(name string, options Options) bool {
	if name == "kissat" {
		_, err := kissatPath(options)
		return err == nil
	}
	_, ok := solvers[name]
	return ok
}
