package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/limaJavier/satmodel/internal/dataset"
	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/problems/airport"
	"github.com/limaJavier/satmodel/pkg/problems/logicgrid"
	"github.com/limaJavier/satmodel/pkg/problems/staffing"
	"github.com/limaJavier/satmodel/pkg/problems/sudoku"
	"github.com/limaJavier/satmodel/pkg/problems/supplychain"
	"github.com/limaJavier/satmodel/pkg/problems/tour"
)

var errNoFile = errors.New("a dataset file must be specified with --file")

func load[T any](env *environment) (T, error) {
	if env.file == "" {
		var zero T
		return zero, errNoFile
	}
	return dataset.Load[T](env.file)
}

func logicCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "logic",
		Short: "Solve a logic grid puzzle; the four students puzzle when no file is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := logicgrid.StudentsPuzzle()
			if env.file != "" {
				var err error
				if input, err = load[logicgrid.Input](env); err != nil {
					return err
				}
			}
			inst, err := logicgrid.Build(input)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[logicgrid.Result]{
				name:    "logic",
				model:   inst.Model,
				decoder: decode.DecoderFunc[logicgrid.Result](inst.Decode),
				verify:  func(result logicgrid.Result) bool { return logicgrid.Verify(result, input) },
				render:  func(result logicgrid.Result) string { return renderLogic(result, input) },
			})
		},
	}
}

func sudokuCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "sudoku",
		Short: "Complete a sudoku grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := load[sudoku.Input](env)
			if err != nil {
				return err
			}
			inst, err := sudoku.Build(input)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[sudoku.Grid]{
				name:    "sudoku",
				model:   inst.Model,
				decoder: decode.DecoderFunc[sudoku.Grid](inst.Decode),
				verify:  func(grid sudoku.Grid) bool { return sudoku.Verify(grid, input) },
				render:  sudoku.Grid.String,
			})
		},
	}
}

func staffingCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "staffing",
		Short: "Staff projects with contractors for the highest profit, or list every plan meeting the margin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := load[staffing.Input](env)
			if err != nil {
				return err
			}
			inst, err := staffing.Build(input)
			if err != nil {
				return err
			}
			var aggregate decode.Aggregate[staffing.Result]
			if !env.enumerate {
				if err := inst.MaximizeProfit(); err != nil {
					return err
				}
				aggregate = staffing.ProfitMargin(input)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[staffing.Result]{
				name:      "staffing",
				model:     inst.Model,
				decoder:   decode.DecoderFunc[staffing.Result](inst.Decode),
				aggregate: aggregate,
				verify:    func(result staffing.Result) bool { return staffing.Verify(result, input) },
				render:    renderStaffing,
			})
		},
	}
}

func supplyCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Plan orders, production and deliveries of a supply chain at minimum cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := load[supplychain.Input](env)
			if err != nil {
				return err
			}
			inst, err := supplychain.Build(input)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[supplychain.Result]{
				name:      "supply",
				model:     inst.Model,
				decoder:   decode.DecoderFunc[supplychain.Result](inst.Decode),
				aggregate: supplychain.TotalCost(input),
				verify:    func(result supplychain.Result) bool { return supplychain.Verify(result, input) },
				render:    renderSupply,
			})
		},
	}
}

func tourCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "tour",
		Short: "Find the shortest round trip through every city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := load[tour.Input](env)
			if err != nil {
				return err
			}
			inst, err := tour.Build(input)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[tour.Result]{
				name:      "tour",
				model:     inst.Model,
				decoder:   decode.DecoderFunc[tour.Result](inst.Decode),
				aggregate: tour.TotalDistance(input),
				verify:    func(result tour.Result) bool { return tour.Verify(result, input) },
				render:    renderTour,
			})
		},
	}
}

func airportCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "airport",
		Short: "Allocate runways and terminals to flights with the shortest total taxi distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := load[airport.Input](env)
			if err != nil {
				return err
			}
			inst, err := airport.Build(input)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), env, task[airport.Result]{
				name:      "airport",
				model:     inst.Model,
				decoder:   decode.DecoderFunc[airport.Result](inst.Decode),
				aggregate: airport.TaxiDistance(input),
				verify:    func(result airport.Result) bool { return airport.Verify(result, input) },
				render:    renderAirport,
			})
		},
	}
}
