package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"offtank-sim/internal/admin"
	"offtank-sim/internal/logging"
	"offtank-sim/internal/report"
	"offtank-sim/internal/scenario"
	"offtank-sim/internal/sim"
)

var (
	simFlags    runFlags
	simTrace    bool
	simLogFile  string
	simTUI      bool
	simScenario string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a batch of simulated Patchwerk fights",
	Long: "simulate runs --sims independent fights of one encounter and prints how often\n" +
		"every soaker survived. Results can be traced to STDOUT, exported as JSONL,\n" +
		"stored in GreptimeDB (GREPTIMEDB_ENDPOINT) or kept in a SQLite history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := simFlags.loadConfig()
		if err != nil {
			return err
		}
		name, description := "", ""
		if simScenario != "" {
			sc, ok := scenario.BuiltIn().Find(simScenario)
			if !ok {
				return fmt.Errorf("unknown scenario %q", simScenario)
			}
			applied, err := sc.Apply(*cfg)
			if err != nil {
				return err
			}
			cfg = &applied
			name, description = sc.Name, sc.Description
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var tui *sim.TUIWriter
		if simTUI {
			tui = sim.NewTUIWriter(cfg, name, description)
		}
		w, err := newWriters(writerOptions{
			cfg:         cfg,
			printOnly:   simFlags.printOnly,
			trace:       simTrace,
			logFile:     simLogFile,
			historyPath: simFlags.historyPath,
			tui:         tui,
		})
		if err != nil {
			if tui != nil {
				_ = tui.Close()
			}
			return err
		}
		defer w.Close()

		opts := append(w.runnerOptions(), sim.WithScenario(name))
		if tui != nil {
			opts = append(opts, sim.WithProgress(tui))
		}
		runner := sim.NewRunner(*cfg, opts...)
		if simFlags.adminAddr != "" {
			startAdmin(ctx, simFlags.adminAddr, runner, w.history, tui)
		}

		summary, runErr := runner.Run(ctx, simFlags.sims)
		if tui != nil {
			_ = tui.WriteSummary(summary)
			tui.Wait()
		}
		if summary.Trials > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), report.SurvivalLine(summary.Survived, summary.Trials))
		}
		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				return fmt.Errorf("interrupted after %d of %d fights", summary.Trials, simFlags.sims)
			}
			return runErr
		}
		if err := w.multi.WriteSummary(summary); err != nil {
			return fmt.Errorf("store summary: %w", err)
		}
		return nil
	},
}

// startAdmin serves the status UI until ctx is done.
func startAdmin(ctx context.Context, addr string, src admin.StatusSource, history *sim.HistoryStore, tui *sim.TUIWriter) {
	log := logging.FromContext(ctx)
	srv := admin.NewServer(src)
	if history != nil {
		srv.WithHistory(history)
	}
	go func() {
		if tui != nil {
			tui.SetAdminStatus(true)
		}
		if err := srv.Start(ctx, addr); err != nil {
			log.Error("admin server failed", "addr", addr, "err", err)
		}
		if tui != nil {
			tui.SetAdminStatus(false)
		}
	}()
}

func init() {
	simFlags.register(simulateCmd)
	simulateCmd.MarkFlagRequired("sims")
	simulateCmd.Flags().BoolVar(&simTrace, "trace", false, "Print every strike and heal to STDOUT (colorized on a terminal, JSON otherwise)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Export traces to this JSONL file and results to <file>.results")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show live progress in a terminal UI")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Apply a built-in scenario over the config (see `sweep --list`)")
}
