package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"offtank-sim/internal/report"
	"offtank-sim/internal/sim"
	"offtank-sim/internal/trace"
)

var (
	historyPath  string
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored batch summaries",
	Long:  "history lists the batches recorded with --history, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sim.OpenHistory(historyPath)
		if err != nil {
			return err
		}
		defer store.Close()
		rows, err := store.History(historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if rows == nil {
				rows = []trace.SummaryRow{}
			}
			return enc.Encode(rows)
		}
		return printHistory(cmd.OutOrStdout(), rows)
	},
}

func printHistory(out io.Writer, rows []trace.SummaryRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "no batches recorded")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSCENARIO\tTRIALS\tSURVIVED\tPERCENT\tMEAN DEATH\tSEED\tRUN")
	for _, r := range rows {
		name := r.Scenario
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s%%\t%.1fs\t%d\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"), name, r.Trials, r.Survived,
			report.FormatPercent(r.Percent), r.MeanDeathTime, r.Seed, r.RunID)
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyPath, "history", "offtank-history.db", "SQLite database written by --history")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum batches to list (0 lists all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON instead of a table")
}
