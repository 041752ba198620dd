package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"offtank-sim/internal/config"
	"offtank-sim/internal/sim"
)

var (
	replayInput      string
	replaySpeed      float64
	replayConfigPath string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a trace log file",
	Long: "replay prints the strikes and heals of a JSONL trace written by simulate --log-file,\n" +
		"paced by simulated time divided by --speed (0 prints without delay).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg := config.Default()
		if replayConfigPath != "" {
			loaded, err := config.Load(replayConfigPath, "")
			if err != nil {
				return err
			}
			cfg = *loaded
		}
		return sim.ReplayLogFile(replayInput, sim.NewStdoutWriter(&cfg), replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to trace log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "", "Encounter config the trace was recorded with (for the overview)")
	replayCmd.MarkFlagRequired("input")
}
