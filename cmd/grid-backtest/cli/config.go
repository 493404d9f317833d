package cli

import (
	"strings"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	"github.com/ducminhle1904/crypto-grid-sim/internal/grid"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
)

// ConfigLoader merges the config file, the environment and the flags
type ConfigLoader struct {
	env *common.EnvLoader
}

// NewConfigLoader creates a new config loader
func NewConfigLoader(env *common.EnvLoader) *ConfigLoader {
	return &ConfigLoader{env: env}
}

// Load builds the effective simulation config. Flags override the file;
// the environment only fills data settings neither of them set.
func (cl *ConfigLoader) Load(f *Flags) (*config.SimulationConfig, error) {
	cfg := &config.SimulationConfig{}
	if *f.ConfigFile != "" {
		loaded, err := config.LoadSimulationConfig(*f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cl.ApplyOverrides(cfg, f)
	if cl.env != nil {
		cl.env.ApplyDataEnv(&cfg.Data)
	}
	cfg.ApplyDefaults()

	if spec := strings.TrimSpace(*f.Sweep); spec != "" {
		// Unnamed parameters stay zero and fall back to the base config
		space, err := sweep.ParseSpace(spec, grid.Config{})
		if err != nil {
			return nil, &grid.ConfigError{Field: "sweep", Message: err.Error()}
		}
		cfg.Sweep = &space
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides copies every flag that was set onto cfg
func (cl *ConfigLoader) ApplyOverrides(cfg *config.SimulationConfig, f *Flags) {
	setString(&cfg.Asset, *f.Asset)
	setString(&cfg.Currency, *f.Currency)
	setString(&cfg.From, *f.From)
	setString(&cfg.To, *f.To)

	if *f.Lower > 0 {
		cfg.LowerLimit = *f.Lower
	}
	if *f.Upper > 0 {
		cfg.UpperLimit = *f.Upper
	}
	if *f.Grids > 0 {
		cfg.NumGrids = *f.Grids
	}
	if *f.Investment > 0 {
		cfg.Investment = *f.Investment
	}

	setString(&cfg.Data.Source, strings.ToLower(*f.Source))
	setString(&cfg.Data.File, *f.DataFile)
	setString(&cfg.Data.Root, *f.DataRoot)
	setString(&cfg.Data.Interval, *f.Interval)
	setString(&cfg.Data.Cache, strings.ToLower(*f.Cache))
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
