package main

import (
	"errors"

	"github.com/spf13/cobra"

	"offtank-sim/internal/config"
)

// runFlags are shared by every command that runs batches.
type runFlags struct {
	sims        int
	configPath  string
	schemaPath  string
	workers     int
	seed        int64
	printOnly   bool
	historyPath string
	adminAddr   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.sims, "sims", 0, "Number of simulated fights (required, > 0)")
	fs.StringVar(&f.configPath, "config", "", "Path to encounter configuration YAML (defaults to the reference raid)")
	fs.StringVar(&f.schemaPath, "schema", "", "Path to CUE schema file (defaults to the embedded schema)")
	fs.IntVar(&f.workers, "workers", 0, "Parallel workers (0 uses the config value or GOMAXPROCS)")
	fs.Int64Var(&f.seed, "seed", 0, "Random seed (0 uses the config value or the clock)")
	fs.BoolVar(&f.printOnly, "print-only", false, "Do not write results to GreptimeDB even if GREPTIMEDB_ENDPOINT is set")
	fs.StringVar(&f.historyPath, "history", "", "Store batch summaries in this SQLite database")
	fs.StringVar(&f.adminAddr, "admin-addr", "", "Serve the admin status UI on this address (e.g. :8080)")
}

// loadConfig returns the encounter for this run with CLI overrides applied.
func (f *runFlags) loadConfig() (*config.Config, error) {
	if f.sims <= 0 {
		return nil, errors.New("--sims must be greater than 0")
	}
	var cfg *config.Config
	if f.configPath == "" {
		d := config.Default()
		cfg = &d
	} else {
		var err error
		if cfg, err = config.Load(f.configPath, f.schemaPath); err != nil {
			return nil, err
		}
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.seed != 0 {
		cfg.Seed = f.seed
	}
	return cfg, cfg.Validate()
}
