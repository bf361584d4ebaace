package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/limaJavier/satmodel/pkg/decode"
	"github.com/limaJavier/satmodel/pkg/sat"
)

const EnvPrefix = "SATMODEL"

type Config struct {
	Solver        string        `mapstructure:"solver"`
	TimeLimit     time.Duration `mapstructure:"time_limit"`
	SolutionLimit int           `mapstructure:"solution_limit"`
	Tolerance     float64       `mapstructure:"tolerance"`
	// Dump is the path the compiled model is written to in OPB format, empty for none
	Dump string `mapstructure:"dump"`
	// Executable is the binary run by out of process solvers
	Executable string `mapstructure:"executable"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"solver":         "solver",
	"time-limit":     "time_limit",
	"solution-limit": "solution_limit",
	"tolerance":      "tolerance",
	"dump":           "dump",
	"executable":     "executable",
}

// RegisterFlags declares the flags Load reads from
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("solver", "gophersat", fmt.Sprintf("solver backend, one of %v", sat.Names()))
	flags.Duration("time-limit", 0, "wall clock budget per solve, 0 for none")
	flags.Int("solution-limit", 0, "stop enumerating after this many solutions, 0 for all")
	flags.Float64("tolerance", decode.DefaultTolerance, "allowed gap between the reported and recomputed objective")
	flags.String("dump", "", "write the compiled model to this file in OPB format")
	flags.String("executable", "", "binary run by the kissat solver, looked up in PATH by default")
}

// Load merges defaults, an optional satmodel.yaml (or the file at path), SATMODEL_* environment
// variables and explicitly set flags, in increasing order of precedence
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("solver", "gophersat")
	v.SetDefault("time_limit", time.Duration(0))
	v.SetDefault("solution_limit", 0)
	v.SetDefault("tolerance", decode.DefaultTolerance)
	v.SetDefault("dump", "")
	v.SetDefault("executable", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("cannot read config %v: %w", path, err)
		}
	} else {
		v.SetConfigName("satmodel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("cannot read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if !slices.Contains(sat.Names(), c.Solver) {
		return fmt.Errorf("%v is not a valid solver, allowed values are %v", c.Solver, sat.Names())
	} else if c.TimeLimit < 0 {
		return fmt.Errorf("time limit cannot be negative: %v", c.TimeLimit)
	} else if c.SolutionLimit < 0 {
		return fmt.Errorf("solution limit cannot be negative: %d", c.SolutionLimit)
	} else if c.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative: %v", c.Tolerance)
	}
	return nil
}

func (c Config) Options() sat.Options {
	return sat.Options{TimeLimit: c.TimeLimit, SolutionLimit: c.SolutionLimit, Executable: c.Executable}
}

// Adapter creates the configured solver backend, failing early when it cannot run on this machine
func (c Config) Adapter() (sat.Adapter, error) {
	adapter, err := sat.New(c.Solver, c.Options())
	if err != nil {
		return nil, err
	}
	if !sat.Available(c.Solver, c.Options()) {
		return nil, fmt.Errorf("%w: %v", sat.ErrUnavailable, c.Solver)
	}
	return adapter, nil
}
