package decode

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"

	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

const DefaultTolerance = 1e-6

var ErrBrokenAssignment = errors.New("solver assignment breaks the model")

// Decoder turns a raw assignment into a domain record
type Decoder[R any] interface {
	Decode(solution model.Solution) (R, error)
}

type DecoderFunc[R any] func(solution model.Solution) (R, error)

func (f DecoderFunc[R]) Decode(solution model.Solution) (R, error) {
	return f(solution)
}

// Aggregate recomputes the objective value from a decoded record using input data only
type Aggregate[R any] func(record R) float64

// Record is a decoded solution tagged with its discovery ordinal, starting at 1
type Record[R any] struct {
	Ordinal int
	Value   R
}

// Outcome is the result of an optimisation run; Record is only meaningful when Decoded is set
type Outcome[R any] struct {
	Status    model.Status
	Objective float64
	Record    R
	Decoded   bool
}

type ConsistencyError struct {
	Reported   float64
	Recomputed float64
	Tolerance  float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("reported objective %v differs from recomputed %v by more than %v", e.Reported, e.Recomputed, e.Tolerance)
}

// Check compares a reported objective against its recomputation
func Check(reported, recomputed, tolerance float64) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if math.Abs(reported-recomputed) > tolerance {
		return &ConsistencyError{Reported: reported, Recomputed: recomputed, Tolerance: tolerance}
	}
	return nil
}

// Optimize solves the model behind handle, decodes the assignment and cross-checks the objective.
// Infeasible and Unknown outcomes carry no record and no error. A nil aggregate skips the check.
func Optimize[R any](ctx context.Context, adapter sat.Adapter, handle sat.Handle, decoder Decoder[R], aggregate Aggregate[R], tolerance float64) (Outcome[R], error) {
	solution, err := adapter.Solve(ctx, handle)
	if err != nil {
		return Outcome[R]{}, err
	}

	outcome := Outcome[R]{Status: solution.Status, Objective: solution.Objective}
	if !solution.Status.HasAssignment() {
		log.V(1).Infof("%v: no assignment to decode (%v)", adapter.Name(), solution.Status)
		return outcome, nil
	}

	record, err := decodeChecked(handle.Model(), decoder, solution)
	if err != nil {
		return outcome, err
	}
	outcome.Record = record
	outcome.Decoded = true

	if aggregate != nil {
		recomputed := aggregate(record)
		log.V(1).Infof("%v: %v objective %v, recomputed %v", adapter.Name(), solution.Status, solution.Objective, recomputed)
		if err := Check(solution.Objective, recomputed, tolerance); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// Enumerate decodes every assignment the adapter delivers, in discovery order. onRecord returning false stops the
// search; a decoding failure stops it and is returned.
func Enumerate[R any](ctx context.Context, adapter sat.Adapter, handle sat.Handle, decoder Decoder[R], onRecord func(Record[R]) bool) (int, error) {
	var decodeErr error
	ordinal := 0
	count, err := adapter.Enumerate(ctx, handle, func(solution model.Solution) bool {
		record, err := decodeChecked(handle.Model(), decoder, solution)
		if err != nil {
			decodeErr = err
			return false
		}
		ordinal++
		return onRecord(Record[R]{Ordinal: ordinal, Value: record})
	})
	if decodeErr != nil {
		return ordinal, decodeErr
	}
	return count, err
}

// Collect gathers every decoded record; the records found so far are returned along with ErrIncomplete
func Collect[R any](ctx context.Context, adapter sat.Adapter, handle sat.Handle, decoder Decoder[R]) ([]Record[R], error) {
	records := make([]Record[R], 0)
	_, err := Enumerate(ctx, adapter, handle, decoder, func(record Record[R]) bool {
		records = append(records, record)
		return true
	})
	return records, err
}

func decodeChecked[R any](m *model.Model, decoder Decoder[R], solution model.Solution) (R, error) {
	if violations := m.Violations(solution); len(violations) > 0 {
		var zero R
		return zero, fmt.Errorf("%w: %d clauses violated, first %v", ErrBrokenAssignment, len(violations), violations[0])
	}
	return decoder.Decode(solution)
}
