package main

import (
	goflag "flag"
	"os"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/limaJavier/satmodel/internal/config"
)

// Exit codes reported to scripts driving the binary
const (
	exitSolved       = 10
	exitVerification = 15
	exitInfeasible   = 20
	exitUnknown      = 30
)

type environment struct {
	config    config.Config
	runID     string
	file      string
	enumerate bool
	// code is the exit code of the last command
	code int
}

func main() {
	env := &environment{}
	root := newRootCmd(env)
	err := root.Execute()
	log.Flush()
	if err != nil {
		os.Exit(1)
	}
	os.Exit(env.code)
}

func newRootCmd(env *environment) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "satmodel",
		Short:        "Compile combinatorial problems into SAT models, solve them and decode the answers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			env.config = cfg
			env.runID = uuid.NewString()
			log.Infof("run %v: solver %v, time limit %v, solution limit %d", env.runID, cfg.Solver, cfg.TimeLimit, cfg.SolutionLimit)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file, satmodel.yaml in the working directory by default")
	flags.StringVar(&env.file, "file", "", "dataset file")
	flags.BoolVar(&env.enumerate, "enumerate", false, "list every feasible solution instead of solving once")
	config.RegisterFlags(flags)
	flags.AddGoFlagSet(goflag.CommandLine)

	root.AddCommand(
		logicCmd(env),
		sudokuCmd(env),
		staffingCmd(env),
		supplyCmd(env),
		tourCmd(env),
		airportCmd(env),
	)
	return root
}
