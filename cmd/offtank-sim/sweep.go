package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"offtank-sim/internal/config"
	"offtank-sim/internal/logging"
	"offtank-sim/internal/report"
	"offtank-sim/internal/scenario"
	"offtank-sim/internal/sim"
	"offtank-sim/internal/trace"
)

const descriptionWidth = 72

var (
	sweepFlags runFlags
	sweepFile  string
	sweepOnly  []string
	sweepList  bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare survival across encounter scenarios",
	Long: "sweep runs the same number of fights for every scenario of a sweep file\n" +
		"(or the built-in raid setups) and prints one survival line per scenario.",
	RunE: func(cmd *cobra.Command, args []string) error {
		file := scenario.BuiltIn()
		if sweepFile != "" {
			var err error
			if file, err = scenario.Load(sweepFile); err != nil {
				return err
			}
		}
		selected, err := selectScenarios(file, sweepOnly)
		if err != nil {
			return err
		}
		if sweepList {
			printScenarios(cmd.OutOrStdout(), selected)
			return nil
		}

		base, err := sweepFlags.loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := newWriters(writerOptions{
			cfg:         base,
			printOnly:   sweepFlags.printOnly,
			historyPath: sweepFlags.historyPath,
		})
		if err != nil {
			return err
		}
		defer w.Close()

		summaries, err := runSweep(ctx, cmd.OutOrStdout(), *base, selected, sweepFlags, w)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			if err := w.multi.WriteSummary(s); err != nil {
				return fmt.Errorf("store summary: %w", err)
			}
		}
		return nil
	},
}

// runSweep runs every scenario in order and prints its survival line as
// soon as it finishes.
func runSweep(ctx context.Context, out io.Writer, base config.Config, scenarios []scenario.Scenario, flags runFlags, w *writers) ([]trace.SummaryRow, error) {
	log := logging.FromContext(ctx).With("component", "sweep")
	var summaries []trace.SummaryRow
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	current := &currentRunner{}
	if flags.adminAddr != "" {
		startAdmin(ctx, flags.adminAddr, current, w.history, nil)
	}
	for _, sc := range scenarios {
		cfg, err := sc.Apply(base)
		if err != nil {
			return summaries, err
		}
		opts := append(w.runnerOptions(), sim.WithScenario(sc.Name))
		runner := sim.NewRunner(cfg, opts...)
		current.set(runner)
		log.Info("running scenario", "scenario", sc.Name)
		s, err := runner.Run(ctx, flags.sims)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return summaries, fmt.Errorf("interrupted during scenario %s", sc.Name)
			}
			return summaries, err
		}
		fmt.Fprintf(tw, "%s\t%s\n", sc.Name, report.SurvivalLine(s.Survived, s.Trials))
		tw.Flush()
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// currentRunner reports the status of whichever scenario is running.
type currentRunner struct {
	mu     sync.Mutex
	runner *sim.Runner
}

func (c *currentRunner) set(r *sim.Runner) {
	c.mu.Lock()
	c.runner = r
	c.mu.Unlock()
}

func (c *currentRunner) Status() sim.Status {
	c.mu.Lock()
	r := c.runner
	c.mu.Unlock()
	if r == nil {
		return sim.Status{}
	}
	return r.Status()
}

func selectScenarios(f *scenario.File, only []string) ([]scenario.Scenario, error) {
	if len(only) == 0 {
		return f.Scenarios, nil
	}
	var out []scenario.Scenario
	for _, name := range only {
		sc, ok := f.Find(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		out = append(out, sc)
	}
	return out, nil
}

func printScenarios(out io.Writer, scenarios []scenario.Scenario) {
	for _, sc := range scenarios {
		fmt.Fprintln(out, sc.Name)
		if sc.Description != "" {
			desc := indent.String(wordwrap.String(sc.Description, descriptionWidth), 4)
			fmt.Fprintln(out, strings.TrimRight(desc, " \n"))
		}
	}
}

func init() {
	sweepFlags.register(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepFile, "file", "", "Sweep definition YAML (defaults to the built-in scenarios)")
	sweepCmd.Flags().StringSliceVar(&sweepOnly, "only", nil, "Run only these scenarios")
	sweepCmd.Flags().BoolVar(&sweepList, "list", false, "List scenarios and exit")
}
