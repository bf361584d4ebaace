package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/golang/glog"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/model"
	"github.com/limaJavier/satmodel/pkg/sat"
)

// task bundles a compiled problem with the pieces needed to report on it
type task[R any] struct {
	name    string
	model   *model.Model
	decoder decode.Decoder[R]
	// aggregate recomputes the objective; nil for satisfaction problems
	aggregate decode.Aggregate[R]
	verify    func(R) bool
	render    func(R) string
}

func run[R any](ctx context.Context, w io.Writer, env *environment, t task[R]) error {
	adapter, err := env.config.Adapter()
	if err != nil {
		return err
	}
	handle, err := adapter.Build(t.model)
	if err != nil {
		return fmt.Errorf("cannot build %v model: %w", t.name, err)
	}
	if env.config.Dump != "" {
		dump(env.config.Dump, handle)
	}

	fmt.Fprintln(w, styles.title.Render(fmt.Sprintf("%v · %v", t.name, adapter.Name())))
	if env.enumerate {
		env.code, err = enumerate(ctx, w, adapter, handle, t)
	} else {
		env.code, err = optimize(ctx, w, adapter, handle, t, env.config.Tolerance)
	}
	if err != nil {
		return err
	}

	stats := handle.Stats()
	fmt.Fprintf(w, "Variables: %v\n", stats.Variables)
	fmt.Fprintf(w, "Constraints: %v\n", stats.Constraints)
	log.Infof("run %v finished with code %d", env.runID, env.code)
	return nil
}

func optimize[R any](ctx context.Context, w io.Writer, adapter sat.Adapter, handle sat.Handle, t task[R], tolerance float64) (int, error) {
	outcome, err := decode.Optimize(ctx, adapter, handle, t.decoder, t.aggregate, tolerance)
	if err != nil {
		return 0, err
	}

	fmt.Fprintln(w, styles.label.Render("Status:"), outcome.Status)
	switch outcome.Status {
	case model.Infeasible:
		return exitInfeasible, nil
	case model.Unknown:
		return exitUnknown, nil
	}

	if t.aggregate != nil {
		fmt.Fprintln(w, styles.label.Render("Objective:"), outcome.Objective)
	}
	fmt.Fprintln(w, styles.record.Render(t.render(outcome.Record)))
	if !t.verify(outcome.Record) {
		fmt.Fprintln(w, styles.failure.Render("verification failed"))
		return exitVerification, nil
	}
	return exitSolved, nil
}

func enumerate[R any](ctx context.Context, w io.Writer, adapter sat.Adapter, handle sat.Handle, t task[R]) (int, error) {
	verified := true
	count, err := decode.Enumerate(ctx, adapter, handle, t.decoder, func(record decode.Record[R]) bool {
		fmt.Fprintln(w, styles.label.Render(fmt.Sprintf("Solution %d:", record.Ordinal)))
		fmt.Fprintln(w, styles.record.Render(t.render(record.Value)))
		if !t.verify(record.Value) {
			fmt.Fprintln(w, styles.failure.Render("verification failed"))
			verified = false
		}
		return true
	})
	incomplete := errors.Is(err, sat.ErrIncomplete)
	if err != nil && !incomplete {
		return 0, err
	}

	fmt.Fprintln(w, styles.label.Render("Solutions:"), count)
	switch {
	case !verified:
		return exitVerification, nil
	case incomplete:
		log.Warningf("enumeration stopped after %d solutions: %v", count, err)
		return exitUnknown, nil
	case count == 0:
		return exitInfeasible, nil
	}
	return exitSolved, nil
}

func dump(path string, handle sat.Handle) {
	file, err := os.Create(path)
	if err != nil {
		log.Warningf("cannot create model dump: %v", err)
		return
	}
	defer file.Close()
	if err := sat.WriteOPB(file, handle); err != nil {
		log.Warningf("cannot dump model to %v: %v", path, err)
	}
}
