package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"offtank-sim/internal/logging"
)

var (
	logLevel     string
	logFormat    string
	logOutput    string
	logMaxSizeMB int
	logCloser    io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "offtank-sim",
	Short: "Patchwerk off-tank survival simulator",
	Long: "offtank-sim runs Monte Carlo simulations of Hateful Strike soakers being healed\n" +
		"through a Patchwerk encounter and reports how often every tank survives.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, closer, err := logging.NewWithOptions(logging.Options{
			Level:      logLevel,
			Format:     logFormat,
			File:       logOutput,
			MaxSizeMB:  logMaxSizeMB,
			MaxBackups: 3,
		})
		if err != nil {
			return err
		}
		logCloser = closer
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.NewContext(ctx, log))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&logOutput, "log-output", "", "Write logs to a rotated file instead of STDERR")
	pf.IntVar(&logMaxSizeMB, "log-max-size", 50, "Maximum log file size in megabytes before rotation")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(historyCmd)
}
